package enums

// ProviderStatus tracks service-provider applications through moderation.
type ProviderStatus string

const (
	ProviderPending  ProviderStatus = "pending"
	ProviderApproved ProviderStatus = "approved"
	ProviderRejected ProviderStatus = "rejected"
)

func (s ProviderStatus) IsValid() bool {
	switch s {
	case ProviderPending, ProviderApproved, ProviderRejected:
		return true
	}
	return false
}
