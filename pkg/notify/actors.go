package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
)

// Messages.
type SendEmail struct {
	Recipient string
	Subject   string
	Body      string
}

type SendSMS struct {
	Recipient string
	Body      string
}

type DeliveryResult struct {
	Success bool
	Error   string
}

// EmailActor hands messages to the email provider under a bounded timeout
// so a slow provider cannot stall its caller indefinitely.
type EmailActor struct {
	sender  EmailSender
	timeout time.Duration
	logger  *zap.Logger
}

func (a *EmailActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *SendEmail:
		sendCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.sender.SendEmail(sendCtx, msg.Recipient, msg.Subject, msg.Body)
		cancel()
		if err != nil {
			a.logger.Warn("email delivery failed",
				zap.String("recipient", msg.Recipient), zap.Error(err))
			ctx.Respond(&DeliveryResult{Error: err.Error()})
			return
		}
		ctx.Respond(&DeliveryResult{Success: true})

	case *actor.Started:
		a.logger.Info("email actor started")
	case *actor.Stopped:
		a.logger.Info("email actor stopped")
	}
}

type SMSActor struct {
	sender  SMSSender
	timeout time.Duration
	logger  *zap.Logger
}

func (a *SMSActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *SendSMS:
		sendCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.sender.SendSMS(sendCtx, msg.Recipient, msg.Body)
		cancel()
		if err != nil {
			a.logger.Warn("sms delivery failed",
				zap.String("recipient", msg.Recipient), zap.Error(err))
			ctx.Respond(&DeliveryResult{Error: err.Error()})
			return
		}
		ctx.Respond(&DeliveryResult{Success: true})

	case *actor.Started:
		a.logger.Info("sms actor started")
	case *actor.Stopped:
		a.logger.Info("sms actor stopped")
	}
}

// Dispatcher routes a message to its channel's actor and waits for the
// delivery result.
type Dispatcher struct {
	system   *actor.ActorSystem
	emailPID *actor.PID
	smsPID   *actor.PID
	timeout  time.Duration
}

func NewDispatcher(email EmailSender, sms SMSSender, timeout time.Duration, logger *zap.Logger) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	emailProps := actor.PropsFromProducer(func() actor.Actor {
		return &EmailActor{sender: email, timeout: timeout, logger: logger.Named("email-actor")}
	})
	emailPID, err := system.Root.SpawnNamed(emailProps, "email-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn email actor: %w", err)
	}

	smsProps := actor.PropsFromProducer(func() actor.Actor {
		return &SMSActor{sender: sms, timeout: timeout, logger: logger.Named("sms-actor")}
	})
	smsPID, err := system.Root.SpawnNamed(smsProps, "sms-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn sms actor: %w", err)
	}

	return &Dispatcher{
		system:   system,
		emailPID: emailPID,
		smsPID:   smsPID,
		timeout:  timeout,
	}, nil
}

// Deliver sends one message over the given channel. The request future is
// bounded by the dispatcher timeout plus the provider timeout inside the
// actor.
func (d *Dispatcher) Deliver(_ context.Context, channel, recipient, subject, body string) error {
	var msg interface{}
	var pid *actor.PID
	switch channel {
	case ChannelEmail:
		msg = &SendEmail{Recipient: recipient, Subject: subject, Body: body}
		pid = d.emailPID
	case ChannelSMS:
		msg = &SendSMS{Recipient: recipient, Body: body}
		pid = d.smsPID
	default:
		return apperrors.Validation("unknown notification channel %q", channel)
	}

	future := d.system.Root.RequestFuture(pid, msg, 2*d.timeout)
	result, err := future.Result()
	if err != nil {
		return apperrors.ExternalService("notification delivery timed out", err)
	}
	res, ok := result.(*DeliveryResult)
	if !ok {
		return apperrors.ExternalService("unexpected delivery response", nil)
	}
	if !res.Success {
		return apperrors.ExternalService("notification delivery failed: "+res.Error, nil)
	}
	return nil
}

func (d *Dispatcher) Shutdown() {
	d.system.Root.Stop(d.emailPID)
	d.system.Root.Stop(d.smsPID)
	d.system.Shutdown()
}
