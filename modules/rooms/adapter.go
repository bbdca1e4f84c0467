package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the coordinator surface the transport layer drives. Every method is
// safe for concurrent use; client-correctable failures come back as the
// sentinel errors in this package.
type Port interface {
	CreateRoom(ctx context.Context, code string) (string, error)
	JoinRoom(ctx context.Context, code, displayName, clientID string) (int, error)
	LeaveRoom(ctx context.Context, code, displayName, clientID string) (count int, dissolved bool, err error)
	SendMessage(ctx context.Context, code, displayName, text string) (time.Time, error)
	Typing(ctx context.Context, code, displayName, clientID string, isTyping bool) error
	RoomInfo(ctx context.Context, code string) (count int, exists bool, err error)
}

// Adapter implements Port over the mono service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new Adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("rooms: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// CreateRoom registers a room code and returns its normalized form.
func (a *Adapter) CreateRoom(ctx context.Context, code string) (string, error) {
	req := CreateRoomRequest{Code: code}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreateRoom,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	if err := CodeToError(resp.ErrorCode); err != nil {
		return "", err
	}
	return resp.Code, nil
}

// JoinRoom adds displayName to a room and returns the new member count.
func (a *Adapter) JoinRoom(ctx context.Context, code, displayName, clientID string) (int, error) {
	req := JoinRoomRequest{Code: code, DisplayName: displayName, ClientID: clientID}
	var resp JoinRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceJoinRoom,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return 0, fmt.Errorf("failed to join room: %w", err)
	}
	if err := CodeToError(resp.ErrorCode); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// LeaveRoom removes displayName from a room.
func (a *Adapter) LeaveRoom(ctx context.Context, code, displayName, clientID string) (int, bool, error) {
	req := LeaveRoomRequest{Code: code, DisplayName: displayName, ClientID: clientID}
	var resp LeaveRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceLeaveRoom,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return 0, false, fmt.Errorf("failed to leave room: %w", err)
	}
	return resp.Count, resp.Dissolved, nil
}

// SendMessage posts a user message and returns its assigned timestamp.
func (a *Adapter) SendMessage(ctx context.Context, code, displayName, text string) (time.Time, error) {
	req := SendMessageRequest{Code: code, DisplayName: displayName, Text: text}
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceSendMessage,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return time.Time{}, fmt.Errorf("failed to send message: %w", err)
	}
	if err := CodeToError(resp.ErrorCode); err != nil {
		return time.Time{}, err
	}
	return resp.Timestamp, nil
}

// Typing forwards a typing state change. Dropped signals are not errors.
func (a *Adapter) Typing(ctx context.Context, code, displayName, clientID string, isTyping bool) error {
	req := TypingRequest{Code: code, DisplayName: displayName, ClientID: clientID, IsTyping: isTyping}
	var resp TypingResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceTyping,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("failed to signal typing: %w", err)
	}
	return nil
}

// RoomInfo reports a room's registration state and member count.
func (a *Adapter) RoomInfo(ctx context.Context, code string) (int, bool, error) {
	req := RoomInfoRequest{Code: code}
	var resp RoomInfoResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceRoomInfo,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return 0, false, fmt.Errorf("failed to query room: %w", err)
	}
	return resp.Count, resp.Exists, nil
}
