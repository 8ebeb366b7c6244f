package utils

const (
	SuccessColor = 0x2ecc71
	ErrorColor   = 0xe74c3c
	WarningColor = 0xf1c40f
	InfoColor    = 0x3498db
	GoldColor    = 0xffd700
)

const (
	ContributorsPerPage = 10
	ChallengesPerPage   = 5
)

func Ptr[T any](v T) *T {
	return &v
}
