package email

import (
	"fmt"
	"net/smtp"
)

// Service sends HTML emails through a plain SMTP relay
type Service struct {
	host     string
	port     string
	from     string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(host, port, from string) *Service {
	return &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

func (s *Service) SendOrderConfirmation(to string, o OrderSummary) error {
	subject := fmt.Sprintf("[Phone Store] Order %s received", o.OrderCode)
	return s.send(to, subject, BuildOrderConfirmationBody(o))
}

func (s *Service) SendStatusUpdate(to string, u StatusUpdate) error {
	subject := fmt.Sprintf("[Phone Store] Order %s is now %s", u.OrderCode, statusLabel(u.Status))
	return s.send(to, subject, BuildStatusUpdateBody(u))
}

func (s *Service) SendPaymentReceived(to string, p PaymentReceipt) error {
	subject := fmt.Sprintf("[Phone Store] Payment received for order %s", p.OrderCode)
	return s.send(to, subject, BuildPaymentReceivedBody(p))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.sendMail(addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
