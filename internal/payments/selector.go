package payments

import (
	"net/http"
	"strings"

	"github.com/canteenhq/settlement/internal/domain"
	"github.com/canteenhq/settlement/internal/wallet"
)

// ProcessorSelector maps a payment method to its adapter. Selection is
// a pure function of the method and the merchant's credentials; there
// is no adapter hierarchy beyond the Processor interface.
type ProcessorSelector struct {
	gatewayBaseURL string
	gatewayClient  *http.Client
	wallets        *wallet.Repository
}

func NewProcessorSelector(gatewayBaseURL string, gatewayClient *http.Client, wallets *wallet.Repository) *ProcessorSelector {
	return &ProcessorSelector{
		gatewayBaseURL: gatewayBaseURL,
		gatewayClient:  gatewayClient,
		wallets:        wallets,
	}
}

// Select returns the processor for the method. UPI needs a merchant;
// seeded placeholder credentials get the mock adapter so environments
// without a live gateway can still demo checkout. Pay-later and cash
// are recorded methods with no processor yet.
func (s *ProcessorSelector) Select(method domain.PaymentMethod, merchant *domain.Merchant) (Processor, error) {
	switch method {
	case domain.PaymentMethodWallet:
		return NewWalletAdapter(s.wallets), nil
	case domain.PaymentMethodUPI:
		if merchant == nil {
			return nil, domain.ErrMerchantNotFound
		}
		if placeholderCredentials(merchant.KeyID, merchant.KeySecret) {
			return NewMockAdapter(), nil
		}
		return NewGatewayAdapter(s.gatewayBaseURL, merchant.KeyID, merchant.KeySecret, s.gatewayClient), nil
	default:
		return nil, domain.ErrUnsupportedPaymentMethod
	}
}

func placeholderCredentials(keyID, keySecret string) bool {
	return keyID == "" || keySecret == "" ||
		strings.Contains(keyID, "YOUR_KEY") || strings.Contains(keySecret, "YOUR_KEY")
}
