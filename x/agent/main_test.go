package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/core/mock"
)

func TestReloadPoliciesHoldsLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	mockPolicy := mock_core.NewMockPolicyService(ctrl)
	mockLock := mock_core.NewMockLockService(ctrl)

	gomock.InOrder(
		mockLock.EXPECT().Acquire(ctx, "agent:policy-reload", gomock.Any()).Return("token0", nil),
		mockPolicy.EXPECT().Load(ctx).Return(nil),
		mockLock.EXPECT().Release(ctx, "agent:policy-reload", "token0").Return(true, nil),
	)

	a := &agent{
		policy: mockPolicy,
		lock:   mockLock,
	}
	a.reloadPolicies(ctx)
}

func TestReloadPoliciesSkipsWhenContended(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	mockPolicy := mock_core.NewMockPolicyService(ctrl)
	mockLock := mock_core.NewMockLockService(ctrl)

	mockLock.EXPECT().Acquire(ctx, "agent:policy-reload", gomock.Any()).Return("", core.NewErrorLockNotAcquired())

	a := &agent{
		policy: mockPolicy,
		lock:   mockLock,
	}
	a.reloadPolicies(ctx)
}

func TestReloadPoliciesReleasesOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	mockPolicy := mock_core.NewMockPolicyService(ctrl)
	mockLock := mock_core.NewMockLockService(ctrl)

	gomock.InOrder(
		mockLock.EXPECT().Acquire(ctx, "agent:policy-reload", gomock.Any()).Return("token1", nil),
		mockPolicy.EXPECT().Load(ctx).Return(assert.AnError),
		mockLock.EXPECT().Release(ctx, "agent:policy-reload", "token1").Return(true, nil),
	)

	a := &agent{
		policy: mockPolicy,
		lock:   mockLock,
	}
	a.reloadPolicies(ctx)
}

func TestRefreshHierarchyWithoutLockService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	mockHierarchy := mock_core.NewMockHierarchyService(ctrl)
	mockHierarchy.EXPECT().Refresh(ctx).Return(nil)

	a := &agent{
		hierarchy: mockHierarchy,
	}
	a.refreshHierarchy(ctx)
}

func TestBootTicks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loaded := make(chan struct{}, 1)
	refreshed := make(chan struct{}, 1)

	mockPolicy := mock_core.NewMockPolicyService(ctrl)
	mockPolicy.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		select {
		case loaded <- struct{}{}:
		default:
		}
		return nil
	}).MinTimes(1)

	mockHierarchy := mock_core.NewMockHierarchyService(ctrl)
	mockHierarchy.EXPECT().Refresh(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return nil
	}).MinTimes(1)

	a := NewAgent(mockPolicy, mockHierarchy, nil, core.Config{
		CacheTTL:        10 * time.Millisecond,
		RefreshInterval: 10 * time.Millisecond,
	})
	a.Boot()

	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("policy reload never ticked")
	}

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("hierarchy refresh never ticked")
	}
}
