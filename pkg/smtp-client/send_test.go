package smtp_client

import (
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/knadh/smtppool"
)

// pooled send contract used by SendMail
var _ func(*email.Email, time.Duration) error = (&smtppool.Pool{}).Send

func TestResolveSenderHeaders(t *testing.T) {
	servers := SmtpServerList{
		From:    "noreply@clinicflow.test",
		Sender:  "bridge@clinicflow.test",
		ReplyTo: []string{"support@clinicflow.test"},
	}

	t.Run("without overrides", func(t *testing.T) {
		from, sender, replyTo := resolveSenderHeaders(servers, nil)
		if from != "noreply@clinicflow.test" || sender != "bridge@clinicflow.test" {
			t.Errorf("unexpected headers: %s %s", from, sender)
		}
		if len(replyTo) != 1 || replyTo[0] != "support@clinicflow.test" {
			t.Errorf("unexpected replyTo: %v", replyTo)
		}
	})

	t.Run("with from and sender overrides", func(t *testing.T) {
		from, sender, _ := resolveSenderHeaders(servers, &HeaderOverrides{
			From:   "clinic@clinicflow.test",
			Sender: "clinic@clinicflow.test",
		})
		if from != "clinic@clinicflow.test" || sender != "clinic@clinicflow.test" {
			t.Errorf("unexpected headers: %s %s", from, sender)
		}
	})

	t.Run("with replyTo override", func(t *testing.T) {
		_, _, replyTo := resolveSenderHeaders(servers, &HeaderOverrides{
			ReplyTo: []string{"frontdesk@clinicflow.test"},
		})
		if len(replyTo) != 1 || replyTo[0] != "frontdesk@clinicflow.test" {
			t.Errorf("unexpected replyTo: %v", replyTo)
		}
	})

	t.Run("noReplyTo wins over replyTo list", func(t *testing.T) {
		_, _, replyTo := resolveSenderHeaders(servers, &HeaderOverrides{
			ReplyTo:   []string{"frontdesk@clinicflow.test"},
			NoReplyTo: true,
		})
		if len(replyTo) != 0 {
			t.Errorf("expected empty replyTo, got %v", replyTo)
		}
	})
}
