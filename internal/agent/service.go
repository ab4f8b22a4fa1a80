package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brain-io/agent/internal/config"
	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
)

const ServiceName = "brain-agent"

// Runner is anything that blocks until its context ends. The session
// monitor is the only one in use.
type Runner interface {
	Run(ctx context.Context) error
}

// ServiceProgram implements the service.Interface
type ServiceProgram struct {
	build  func(ctx context.Context) (Runner, error)
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *ServiceProgram) Start(s service.Service) error {
	logrus.Infoln("Brain agent service starting")

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
	return nil
}

func (p *ServiceProgram) run(ctx context.Context) {
	defer close(p.done)

	runner, err := p.build(ctx)
	if err != nil {
		logrus.WithError(err).Errorln("Failed to start session monitor")
		return
	}

	if err := runner.Run(ctx); err != nil {
		logrus.WithError(err).Errorln("Session monitor exited")
	}
}

func (p *ServiceProgram) Stop(s service.Service) error {
	logrus.Infoln("Brain agent service stopping")
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	return nil
}

// CreateService wraps the session monitor in an OS service. Nobody can
// answer prompts there, so credentials must come from the environment or
// the store and biometric challenges are polled.
func CreateService(cfg *config.Config) (service.Service, error) {

	svcConfig, err := getServiceConfig(cfg)
	if err != nil {
		return nil, err
	}

	prg := &ServiceProgram{
		build: func(ctx context.Context) (Runner, error) {
			runtime, err := NewRuntime(ctx, cfg, nil, nil)
			if err != nil {
				return nil, err
			}
			return runtime.NewMonitor(), nil
		},
	}

	return service.New(prg, svcConfig)
}

func getServiceConfig(cfg *config.Config) (*service.Config, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}

	arguments := []string{"service", "run"}
	if file := cfg.GetConfigFile(); len(file) > 0 {
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
		arguments = append(arguments, "--config", file)
	}

	return &service.Config{
		Name:        ServiceName,
		DisplayName: "Brain Agent Service",
		Description: "Keeps a platform session authenticated in the background",
		Executable:  exePath,
		Arguments:   arguments,
	}, nil
}
