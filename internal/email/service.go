package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/gomail.v2"

	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
	popTimeout     = 2 * time.Second
)

const (
	TypeWelcome      = "welcome"
	TypeProgramReady = "program_ready"
	TypeQuotaReached = "quota_reached"
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers a single message.
type Sender interface {
	Send(job Job) error
}

type smtpSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, user, pass, from, fromName string) Sender {
	return &smtpSender{
		dialer:   gomail.NewDialer(host, port, user, pass),
		from:     from,
		fromName: fromName,
	}
}

func (s *smtpSender) Send(job Job) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", job.To, job.Name)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.Body)
	return s.dialer.DialAndSend(m)
}

type Service struct {
	redis      *redis.Client
	sender     Sender
	retryDelay time.Duration
}

func New(rdb *redis.Client, sender Sender) *Service {
	return &Service{
		redis:      rdb,
		sender:     sender,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) Send(ctx context.Context, emailType, to, name, subject, body string) error {
	job := Job{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", to, "type", emailType, "error", err)
		metrics.RecordEmail(emailType, "queue_failed")
		return fmt.Errorf("queue email: %w", err)
	}

	metrics.RecordEmail(emailType, "queued")
	logger.Info("email queued", "to", to, "type", emailType)
	return nil
}

// Start pops jobs until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, popTimeout, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Warn("email queue pop failed", "error", err)
			time.Sleep(popTimeout)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email payload", "error", err)
		return
	}

	job.Tries++
	if err := s.sender.Send(job); err != nil {
		logger.Error("failed to send email", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			if s.retryDelay > 0 {
				time.Sleep(s.retryDelay)
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			metrics.RecordEmail(job.Type, "retry")
			return
		}

		s.saveFailed(job, err)
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Info("email sent", "to", job.To, "type", job.Type)
}

func (s *Service) saveFailed(job Job, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
	metrics.RecordEmail(job.Type, "failed")
	logger.Error("email moved to failed queue", "to", job.To, "tries", job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(`Hi %s,

Welcome to CompileStrength! Tell the coach about your goals and equipment
and it will compile a training program for you.

- CompileStrength`, name)

	return s.Send(ctx, TypeWelcome, email, name, "Welcome to CompileStrength", body)
}

func (s *Service) SendProgramReady(ctx context.Context, email, name, programName string, days int) error {
	body := fmt.Sprintf(`Hi %s,

Your program "%s" has been saved with %d training days.
Open the app to start your first session.

- CompileStrength`, name, programName, days)

	return s.Send(ctx, TypeProgramReady, email, name, "Your program is ready: "+programName, body)
}

func (s *Service) SendQuotaReached(ctx context.Context, email, name, kind string, resetsAt time.Time) error {
	body := fmt.Sprintf(`Hi %s,

You have used all of this week's %s allowance.
It resets on %s.

- CompileStrength`, name, kind, resetsAt.Format("Jan 2, 2006 at 3:04 PM MST"))

	return s.Send(ctx, TypeQuotaReached, email, name, "Weekly limit reached", body)
}
