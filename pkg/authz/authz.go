// Package authz supplies the permission collaborator consumed by the
// ledger services. The production implementation enforces casbin policies;
// tests inject stubs.
package authz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffledger/pkg/serrors"
)

// Checker answers whether an actor may perform an action on a module's
// resources, e.g. HasPermission(ctx, 7, "leave", "approve").
type Checker interface {
	HasPermission(ctx context.Context, actorID int64, module, action string) (bool, error)
}

var ErrForbidden = serrors.Policy("AUTHZ_FORBIDDEN", "permission denied")

// Service enforces casbin policies loaded from a model and CSV policy file.
type Service struct {
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
	mu       sync.RWMutex
}

func NewService(modelPath, policyPath string, logger *logrus.Logger) (*Service, error) {
	enf, err := casbin.NewEnforcer(modelPath, fileadapter.NewAdapter(policyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "authz")
	} else {
		entry = logrus.WithField("component", "authz")
	}

	return &Service{enforcer: enf, logger: entry}, nil
}

func (s *Service) HasPermission(ctx context.Context, actorID int64, module, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(SubjectForStaff(actorID), ObjectName(module), NormalizeAction(action))
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	if !allowed {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"actor":  actorID,
			"module": module,
			"action": action,
		}).Warn("authz denied request")
	}
	return allowed, nil
}

// ReloadPolicy reloads policy data from disk.
func (s *Service) ReloadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("authz: reload policy failed: %w", err)
	}
	s.logger.WithContext(ctx).Info("authz policy reloaded")
	return nil
}

// Authorize returns ErrForbidden when the actor lacks the permission.
func Authorize(ctx context.Context, checker Checker, actorID int64, module, action string) error {
	allowed, err := checker.HasPermission(ctx, actorID, module, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden.WithTemplateData(map[string]string{
			"module": module,
			"action": action,
		})
	}
	return nil
}

// SubjectForStaff builds a casbin subject identifier for a staff member.
func SubjectForStaff(staffID int64) string {
	return fmt.Sprintf("staff:%d", staffID)
}

// ObjectName returns the canonical module object string, lowercased.
func ObjectName(module string) string {
	module = strings.ToLower(strings.TrimSpace(module))
	if module == "" {
		module = "global"
	}
	return module
}

// NormalizeAction returns a normalized action string.
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return "*"
	}
	return action
}
