package services

import (
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// SendPasswordResetEmail delivers the reset link for a forgot-password
// request over plain SMTP (STARTTLS is negotiated by the server).
func SendPasswordResetEmail(toEmail, resetToken string) error {
	server := getenv("SMTP_SERVER", "smtp.gmail.com")
	port := getenv("SMTP_PORT", "587")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := getenv("SMTP_FROM_EMAIL", username)
	clientURL := getenv("CLIENT_URL", "http://localhost:5173")

	if username == "" || password == "" {
		return errors.New("SMTP credentials not configured")
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", clientURL, resetToken)

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + toEmail + "\r\n")
	msg.WriteString("Subject: MindTrace - Password Reset\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString("Hello,\r\n\r\n")
	msg.WriteString("You requested to reset your password for MindTrace.\r\n\r\n")
	msg.WriteString("Open the link below to choose a new password. The link expires in one hour.\r\n\r\n")
	msg.WriteString(resetLink + "\r\n\r\n")
	msg.WriteString("If you didn't request this, please ignore this email.\r\n\r\n")
	msg.WriteString("Best regards,\r\nMindTrace Team\r\n")

	auth := smtp.PlainAuth("", username, password, server)
	addr := server + ":" + port

	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, []byte(msg.String())); err != nil {
		log.Printf("[Email] Failed to send password reset email to %s: %v", toEmail, err)
		return err
	}

	log.Printf("[Email] Password reset email sent to %s", toEmail)
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
