package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendFeedbackAlert(toEmail, roomId, question, answer, comment string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

// SendFeedbackAlert notifies the support team about a thumbs-down with a
// written comment so the knowledge base gap can be closed.
func (s *emailService) SendFeedbackAlert(toEmail, roomId, question, answer, comment string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Negative chatbot feedback received")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>A user was unhappy with an answer</h2>
			<p><b>Room:</b> %s</p>
			<p><b>Question:</b></p>
			<blockquote>%s</blockquote>
			<p><b>Answer given:</b></p>
			<blockquote>%s</blockquote>
			<p><b>User comment:</b></p>
			<blockquote style="color: #C0392B;">%s</blockquote>
			<p>Consider adding the missing information to the knowledge base.</p>
		</div>
	`, roomId, question, answer, comment)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send feedback alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Feedback alert sent to %s\n", toEmail)
	return nil
}
