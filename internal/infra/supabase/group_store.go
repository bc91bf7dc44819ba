package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// GroupStore implementation — groups + group_messages via PostgREST
// ============================================================

func (c *Client) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetGroup")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID))

	path := fmt.Sprintf("groups?id=eq.%s&limit=1", groupID)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/groups", Err: err}
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "group", ID: groupID}
	}

	var rows []domain.Group
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "group", ID: groupID}
	}
	return &rows[0], nil
}

func (c *Client) ListGroups(ctx context.Context, serviceName string, page, pageSize int) ([]domain.Group, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGroups")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("groups?order=created_at.desc&limit=%d&offset=%d", pageSize, offset)
	if serviceName != "" {
		path += "&service_name=eq." + url.QueryEscape(serviceName)
	}

	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/groups", Err: err}
	}
	if body == nil {
		return []domain.Group{}, nil
	}

	var rows []domain.Group
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateGroup(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateGroup")
	defer span.End()

	roster, err := json.Marshal(group.Roster)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	credential, err := json.Marshal(group.Credential)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}

	row := map[string]any{
		"id":           group.ID,
		"host_id":      group.HostID,
		"service_name": group.ServiceName,
		"name":         group.Name,
		"price":        group.Price,
		"max_members":  group.MaxMembers,
		"members":      group.Members,
		"members_list": json.RawMessage(roster),
		"rules":        group.Rules,
		"credential":   json.RawMessage(credential),
		"status":       group.Status,
	}

	body, err := c.doPost(ctx, "groups", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/groups", Err: err}
	}

	var results []domain.Group
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from groups insert")
	}
	return &results[0], nil
}

// AppendMember adds one roster entry and bumps the member count. The
// PATCH filters on the expected count, so two racing joins cannot both
// land on the same last seat: the loser matches zero rows and gets
// ErrConflict.
func (c *Client) AppendMember(ctx context.Context, groupID string, expectedMembers int, member domain.GroupMember) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendMember")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID))

	group, err := c.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	roster := append(group.Roster, member)
	encoded, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	path := fmt.Sprintf("groups?id=eq.%s&members=eq.%d", groupID, expectedMembers)
	err = c.doPatch(ctx, path, map[string]any{
		"members_list": json.RawMessage(encoded),
		"members":      expectedMembers + 1,
		"updated_at":   time.Now().Format(time.RFC3339),
	})
	if err == errNoRowsMatched {
		return &domain.ErrConflict{Message: "O grupo foi atualizado por outra pessoa. Tente novamente"}
	}
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/groups", Err: err}
	}
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, groupID, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RemoveMember")
	defer span.End()

	group, err := c.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	roster := make([]domain.GroupMember, 0, len(group.Roster))
	for _, m := range group.Roster {
		if m.UserID != userID {
			roster = append(roster, m)
		}
	}
	if len(roster) == len(group.Roster) {
		return &domain.ErrNotFound{Resource: "group member", ID: userID}
	}

	encoded, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	err = c.doPatch(ctx, fmt.Sprintf("groups?id=eq.%s", groupID), map[string]any{
		"members_list": json.RawMessage(encoded),
		"members":      len(roster),
		"updated_at":   time.Now().Format(time.RFC3339),
	})
	if err != nil && err != errNoRowsMatched {
		return &domain.ErrExternalService{Service: "supabase/groups", Err: err}
	}
	return nil
}

func (c *Client) ListMessages(ctx context.Context, groupID string, page, pageSize int) ([]domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("group_messages?group_id=eq.%s&order=created_at.asc&limit=%d&offset=%d",
		groupID, pageSize, offset)
	body, err := c.getList(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/group_messages", Err: err}
	}
	if body == nil {
		return []domain.ChatMessage{}, nil
	}

	var rows []domain.ChatMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode group_messages: %w", err)
	}
	return rows, nil
}
