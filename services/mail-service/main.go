package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/smtp"
	"os"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const welcomeMailQueue = "user_registered"

// UserRegisteredEvent mirrors the payload published by the user service.
type UserRegisteredEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type mailer struct {
	host     string
	port     string
	user     string
	pass     string
	from     string
	siteURL  string
	template *template.Template
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: 20px auto; background-color: #ffffff; padding: 30px; border-radius: 8px;">
    <h1>🍽️ Welcome to FoodShare Connect!</h1>
    <h2>Hello {{.Name}}!</h2>
    <p>Thank you for joining our community dedicated to reducing food waste and helping those in need.</p>
    <p><strong>What you can do:</strong></p>
    <ul>
      <li>🤝 Volunteer to distribute surplus food</li>
      <li>🏨 Create food donation drives</li>
      <li>📊 Track your impact on the leaderboard</li>
    </ul>
    <p><a href="{{.SiteURL}}">Go to Dashboard</a></p>
    <p>Making a difference, one meal at a time. 🌟</p>
  </div>
</body>
</html>`))

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newMailer() *mailer {
	return &mailer{
		host:     getenv("EMAIL_HOST", "smtp.gmail.com"),
		port:     getenv("EMAIL_PORT", "587"),
		user:     os.Getenv("EMAIL_USER"),
		pass:     os.Getenv("EMAIL_PASS"),
		from:     getenv("EMAIL_FROM", os.Getenv("EMAIL_USER")),
		siteURL:  getenv("FRONTEND_URL", "http://localhost:3000"),
		template: welcomeTemplate,
	}
}

func (m *mailer) configured() bool {
	return m.user != "" && m.pass != ""
}

func (m *mailer) sendWelcome(event UserRegisteredEvent) error {
	var body bytes.Buffer
	err := m.template.Execute(&body, map[string]string{
		"Name":    event.Name,
		"SiteURL": m.siteURL,
	})
	if err != nil {
		return fmt.Errorf("render welcome template: %w", err)
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: FoodShare Connect <%s>", m.from),
		fmt.Sprintf("To: %s", event.Email),
		"Subject: Welcome to FoodShare Connect Community!",
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body.String(),
	}, "\r\n")

	return m.sendSMTP(event.Email, []byte(msg))
}

func (m *mailer) sendSMTP(to string, msg []byte) error {
	addr := m.host + ":" + m.port

	conn, err := net.DialTimeout("tcp", addr, 8*time.Second)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := c.Auth(auth); err != nil {
		return err
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	return wc.Close()
}

func rabbitMQURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		getenv("RABBITMQ_USER", "guest"),
		getenv("RABBITMQ_PASS", "guest"),
		getenv("RABBITMQ_HOST", "localhost"),
		getenv("RABBITMQ_PORT", "5672"),
	)
}

func main() {
	m := newMailer()
	if !m.configured() {
		log.Println("[WARN] Email credentials not configured, welcome emails will be skipped")
	}

	url := rabbitMQURL()
	log.Printf("[INFO] Connecting to RabbitMQ at: %s", url)

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("[ERROR] Failed to open channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(welcomeMailQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatalf("[ERROR] Failed to declare queue: %v", err)
	}

	msgs, err := ch.Consume(welcomeMailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("[ERROR] Failed to register consumer: %v", err)
	}

	log.Println("[OK] Mail Service waiting for registration events")

	for d := range msgs {
		var event UserRegisteredEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Printf("[ERROR] Failed to decode event: %v", err)
			_ = d.Nack(false, false)
			continue
		}

		if !m.configured() {
			log.Printf("[INFO] Skipping welcome email for %s (no credentials)", event.Email)
			_ = d.Ack(false)
			continue
		}

		if err := m.sendWelcome(event); err != nil {
			log.Printf("[ERROR] Failed to send welcome email to %s: %v", event.Email, err)
			// Welcome mail is best-effort, drop rather than requeue forever.
			_ = d.Nack(false, false)
			continue
		}

		log.Printf("[OK] Welcome email sent to %s", event.Email)
		_ = d.Ack(false)
	}
}
