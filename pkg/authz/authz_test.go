package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/pkg/authz"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

type staticChecker struct {
	allowed bool
	err     error
}

func (s staticChecker) HasPermission(ctx context.Context, actorID int64, module, action string) (bool, error) {
	return s.allowed, s.err
}

func TestAuthorize_Allowed(t *testing.T) {
	err := authz.Authorize(context.Background(), staticChecker{allowed: true}, 1, "leave", "approve")
	require.NoError(t, err)
}

func TestAuthorize_Denied(t *testing.T) {
	err := authz.Authorize(context.Background(), staticChecker{allowed: false}, 1, "leave", "approve")
	require.Error(t, err)
	require.True(t, serrors.HasCode(err, "AUTHZ_FORBIDDEN"))
	require.Equal(t, serrors.KindPolicy, serrors.KindOf(err))
}

func TestSubjectAndObjectNormalization(t *testing.T) {
	require.Equal(t, "staff:42", authz.SubjectForStaff(42))
	require.Equal(t, "leave", authz.ObjectName("  Leave "))
	require.Equal(t, "global", authz.ObjectName(""))
	require.Equal(t, "approve", authz.NormalizeAction(" APPROVE "))
	require.Equal(t, "*", authz.NormalizeAction(""))
}
