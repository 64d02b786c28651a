package email

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// Service sends shop notifications over SMTP
type Service struct {
	dialer *gomail.Dialer
	from   string
}

// NewService creates a new email service. username may be empty for
// relays that do not require auth.
func NewService(host string, port int, username, password, from string) *Service {
	return &Service{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendLowStockAlert tells the shop owner that a product is running out
func (s *Service) SendLowStockAlert(alert LowStockAlert) error {
	subject := fmt.Sprintf("[%s] Low stock: %s (%d left)", alert.ShopName, alert.ProductName, alert.StockAfter)
	return s.send(alert.To, subject, BuildLowStockBody(alert))
}

// SendPendingDigest sends the daily list of customers who owe money
func (s *Service) SendPendingDigest(digest PendingDigest) error {
	subject := fmt.Sprintf("[%s] Pending credit %s: %s", digest.ShopName, digest.Date, digest.Total)
	return s.send(digest.To, subject, BuildPendingDigestBody(digest))
}

func (s *Service) send(to []string, subject, body string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return errors.Wrapf(s.dialer.DialAndSend(m), "send %q", subject)
}
