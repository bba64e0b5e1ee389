// consumer.go contains the background consumer that listens to the
// mail.verification queue and delivers each code over SMTP.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SMTPConfig carries the mail-transport credentials the consumer
// delivers with.  The values are loaded once at process start and
// passed in at construction time.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string { return c.Host + ":" + c.Port }

// StartMailConsumer connects to RabbitMQ, declares the durable
// mail.verification queue and consumes events, delivering each one as
// an email.  It runs a reconnect loop with exponential backoff and
// keeps running for the life of the process; processing errors are
// logged and the offending message rejected without requeue so a bad
// payload cannot wedge the queue.
func StartMailConsumer(url string, smtpCfg SMTPConfig) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, smtpCfg); err != nil {
			log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, smtpCfg SMTPConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(VerificationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(VerificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, smtpCfg); err != nil {
			log.Printf("mail-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, smtpCfg SMTPConfig) error {
	var ev VerificationEmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.Code == "" {
		return errors.New("event missing email or code")
	}
	return sendMail(smtpCfg, ev)
}

func sendMail(cfg SMTPConfig, ev VerificationEmailEvent) error {
	msg := strings.Join([]string{
		"From: " + cfg.From,
		"To: " + ev.Email,
		"Subject: Your verification code",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		"Your account verification code is: " + ev.Code,
		"",
	}, "\r\n")

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := smtp.SendMail(cfg.Addr(), auth, cfg.From, []string{ev.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Printf("mail-consumer: delivered verification code to %s", ev.Email)
	return nil
}
