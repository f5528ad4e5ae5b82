package services

import (
	"fmt"

	"party-radar-backend/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// PushService sends APNs alerts to offline participants. It is a no-op when
// no certificate is configured.
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService creates a push service from the APNs configuration
func NewPushService(cfg config.APNSConfig) (*PushService, error) {
	if cfg.CertPath == "" {
		return &PushService{}, nil
	}

	cert, err := certificate.FromP12File(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{client: client, topic: cfg.Topic}, nil
}

// Enabled reports whether push delivery is configured
func (s *PushService) Enabled() bool {
	return s.client != nil
}

// Notify sends one alert to a device token
func (s *PushService) Notify(deviceToken, title, body string) error {
	if s.client == nil {
		return nil
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}

	res, err := s.client.Push(notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
	return nil
}
