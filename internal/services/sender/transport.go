package sender

import (
	"io"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
)

// Client SMTP сессия, через которую отправляется одно письмо.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Transport открывает SMTP сессии от имени учётной записи отправителя.
type Transport interface {
	Connect() (Client, error)
	GetSMTPUser() string
}

type smtpTransport struct {
	transport *smtp.Transport
}

// SMTP использует t для доставки писем сервиса.
func SMTP(t *smtp.Transport) Transport {
	return smtpTransport{transport: t}
}

func (s smtpTransport) Connect() (Client, error) {
	client, err := s.transport.Connect()
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s smtpTransport) GetSMTPUser() string {
	return s.transport.GetSMTPUser()
}
