package dispatch

import (
	"errors"

	httpclient "github.com/clinicflow/clinicflow-backend/pkg/http-client"
)

// EmailSender is the outbound transport collaborator. Retry and backoff
// are its policy, not this subsystem's.
type EmailSender interface {
	SendEmail(to []string, subject string, content string, highPrio bool) error
}

type SendEmailReq struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	HighPrio bool     `json:"highPrio"`
}

// BridgeSender delivers email through the SMTP bridge service.
type BridgeSender struct {
	Client *httpclient.ClientConfig
}

func (s BridgeSender) SendEmail(to []string, subject string, content string, highPrio bool) error {
	if s.Client == nil || s.Client.RootURL == "" {
		return errors.New("connection to smtp bridge not initialized")
	}

	sendEmailReq := SendEmailReq{
		To:       to,
		Subject:  subject,
		Content:  content,
		HighPrio: highPrio,
	}
	resp, err := s.Client.RunHTTPcall("/send-email", sendEmailReq)
	if err == nil && resp != nil {
		errMsg, hasError := resp["error"]
		if hasError {
			err = errors.New(errMsg.(string))
		}
	}
	return err
}
