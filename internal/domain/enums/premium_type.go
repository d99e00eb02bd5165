package enums

type PremiumType string

const (
	PremiumNone    PremiumType = ""
	PremiumPremium PremiumType = "premium"
	PremiumVIP     PremiumType = "vip"
)

func ParsePremiumType(raw string) PremiumType {
	switch PremiumType(raw) {
	case PremiumPremium, PremiumVIP:
		return PremiumType(raw)
	default:
		return PremiumNone
	}
}
