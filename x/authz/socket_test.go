package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/core/mock"
)

func TestChannelAuthorizationHook(t *testing.T) {
	grant := core.Policy{
		ID:          "developer-channels",
		Description: "Developers subscribe",
		Enabled:     true,
		Priority:    100,
		Effect:      core.EffectAllow,
		Conditions: []core.PolicyCondition{{
			Type: core.ConditionAll,
			Rules: []core.PolicyRule{
				{Attribute: "resource.type", Operator: "equals", Value: core.ResourceChannel},
				{Attribute: "action.name", Operator: "equals", Value: core.ActionRead},
				{Attribute: "subject.roles", Operator: "contains", Value: "developer"},
			},
		}},
	}
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil, grant)
	hook := ChannelAuthorizationHook(engine)

	conn := &Conn{Subject: core.Subject{ID: "user1", TenantID: "tenant1", Roles: []string{"developer"}}}

	// non-subscribe frames pass untouched
	err := hook(context.Background(), conn, &SocketMessage{Type: "ping"})
	assert.NoError(t, err)

	err = hook(context.Background(), conn, &SocketMessage{Type: "subscribe", Channels: []string{"deploys"}})
	assert.NoError(t, err)

	stranger := &Conn{Subject: core.Subject{ID: "user2", TenantID: "tenant1"}}
	err = hook(context.Background(), stranger, &SocketMessage{Type: "subscribe", Channels: []string{"deploys"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deploys")
}

func TestRateLimitHook(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limiter := mock_core.NewMockRateLimitService(ctrl)
	gomock.InOrder(
		limiter.EXPECT().IsAllowed(gomock.Any(), "socket:user1").Return(true, nil),
		limiter.EXPECT().IsAllowed(gomock.Any(), "socket:user1").Return(false, nil),
	)

	hook := RateLimitHook(limiter)
	conn := &Conn{Subject: core.Subject{ID: "user1"}}

	err := hook(context.Background(), conn, &SocketMessage{Type: "ping"})
	assert.NoError(t, err)

	err = hook(context.Background(), conn, &SocketMessage{Type: "ping"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
