package services

import (
	"log"
	"os"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// Email delivery is fire-and-forget: failures are logged and never block the
// triggering operation.

func sendMail(toEmail, toName, subject, htmlBody string) {
	publicKey := os.Getenv("MAILJET_API_KEY")
	privateKey := os.Getenv("MAILJET_SECRET_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")
	if publicKey == "" || privateKey == "" || fromEmail == "" {
		log.Println("mail not configured, skipping email to", toEmail)
		return
	}

	client := mailjet.NewMailjetClient(publicKey, privateKey)
	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From: &mailjet.RecipientV31{
					Email: fromEmail,
					Name:  "EasyAccommodation",
				},
				To: &mailjet.RecipientsV31{
					{Email: toEmail, Name: toName},
				},
				Subject:  subject,
				HTMLPart: htmlBody,
			},
		},
	}

	if _, err := client.SendMailV31(&messages); err != nil {
		log.Println("failed to send email to", toEmail, ":", err)
	}
}

func SendEmailVerification(toEmail, toName, token string) {
	link := os.Getenv("FRONTEND_BASE_URL") + "/verify-email?token=" + token
	html := `<p>Hi ` + toName + `,</p>
	<p>Thanks for registering with EasyAccommodation. Please confirm your
	email address by clicking the link below.</p>
	<p><a href="` + link + `">Verify my email</a></p>`
	go sendMail(toEmail, toName, "Verify your EasyAccommodation email", html)
}

func SendStudentVerifiedEmail(toEmail, toName string) {
	html := `<p>Hi ` + toName + `,</p>
	<p>Your payment has been confirmed and your account is now fully
	verified. You can reserve and book rooms for the next 30 days.</p>`
	go sendMail(toEmail, toName, "Your EasyAccommodation account is fully verified", html)
}

func SendPaymentProofRejectedEmail(toEmail, toName, reason string) {
	html := `<p>Hi ` + toName + `,</p>
	<p>Unfortunately the proof of payment you uploaded was rejected.</p>`
	if reason != "" {
		html += `<p>Reason: ` + reason + `</p>`
	}
	html += `<p>Please upload a valid proof of payment to continue.</p>`
	go sendMail(toEmail, toName, "Payment Proof Rejected - Invalid Proof of Payment", html)
}

func SendAdminCreatedEmail(toEmail, toName, createdByName string) {
	html := `<p>Hi ` + toName + `,</p>
	<p>An administrator account has been created for you on
	EasyAccommodation by ` + createdByName + `. Use the password you were
	given to log in, then change it from your profile.</p>`
	go sendMail(toEmail, toName, "Your admin account has been created", html)
}
