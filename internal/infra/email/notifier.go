package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier emails the submitting user when a batch job fails
// terminally. Failures are asynchronous, so email is the only push channel
// a user has.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, videoID, title, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("Kinstretch - Video Processing Failed [%s]", videoID)
	if title != "" {
		subject = fmt.Sprintf("Kinstretch - Processing Failed: %s", title)
	}
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Pose extraction for your video could not be completed.\r\n\r\n"+
			"Video ID: %s\r\n"+
			"Title: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"You can submit the video again from the app.\r\n\r\n"+
			"-- Kinstretch",
		videoID, title, errorMsg,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, userEmail, subject, body,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{userEmail}, []byte(msg)); err != nil {
		n.logger.Error("failed to send failure notification",
			zap.String("to", userEmail),
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification sent",
		zap.String("to", userEmail),
		zap.String("video_id", videoID),
	)
	return nil
}
