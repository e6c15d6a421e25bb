package store

import (
	"context"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CategoryStore struct {
	db *sqlx.DB
}

// MemberRegistration is a group member joined with its registration.
type MemberRegistration struct {
	bracket.Registration
	DrawOrder int `db:"draw_order"`
}

const (
	insertMatchQuery = `INSERT INTO matches (id, category_id, group_id, round_id, phase, registration_1_id, registration_2_id, sets_1, sets_2, status, result_kind)
		VALUES (:id, :category_id, :group_id, :round_id, :phase, :registration_1_id, :registration_2_id, :sets_1, :sets_2, :status, :result_kind)`
	updateMatchResultQuery = `
		UPDATE matches SET
		registration_1_id = :registration_1_id,
		registration_2_id = :registration_2_id,
		sets_1 = :sets_1,
		sets_2 = :sets_2,
		status = :status,
		result_kind = :result_kind,
		winner_id = :winner_id,
		walkover_winner_id = :walkover_winner_id,
		result_set_by = :result_set_by,
		result_set_at = :result_set_at
		WHERE id = :id
	`
	getGroupMembersQuery = `
		SELECT r.*, gm.draw_order FROM group_members gm
		JOIN registrations r ON r.id = gm.registration_id
		WHERE gm.group_id = ?
		ORDER BY gm.draw_order ASC
	`
)

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) CreateCategory(ctx context.Context, tx *sqlx.Tx, category *bracket.Category) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO categories (id, name, pts_victory, pts_defeat, pts_wo_victory, pts_set, pts_game, pts_technical_draw)
		VALUES (:id, :name, :pts_victory, :pts_defeat, :pts_wo_victory, :pts_set, :pts_game, :pts_technical_draw)`, category)
	return err
}

func (s *CategoryStore) GetCategory(ctx context.Context, id string) (*bracket.Category, error) {
	var category bracket.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryStore) CreateRegistrations(ctx context.Context, tx *sqlx.Tx, registrations []bracket.Registration) error {
	if len(registrations) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO registrations (id, category_id, class, kind, account_name, guest_name)
		VALUES (:id, :category_id, :class, :kind, :account_name, :guest_name)`, registrations)
	return err
}

func (s *CategoryStore) GetRegistrations(ctx context.Context, categoryID string) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations, "SELECT * FROM registrations WHERE category_id = ? ORDER BY rowid ASC", categoryID)
	return registrations, err
}

func (s *CategoryStore) GetRegistrationsTx(ctx context.Context, tx *sqlx.Tx, categoryID string) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := tx.SelectContext(ctx, &registrations, "SELECT * FROM registrations WHERE category_id = ? ORDER BY rowid ASC", categoryID)
	return registrations, err
}

func (s *CategoryStore) CreateGroup(ctx context.Context, tx *sqlx.Tx, group *bracket.Group, members []bracket.GroupMember) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO draw_groups (id, category_id, name, seed_id)
		VALUES (:id, :category_id, :name, :seed_id)`, group)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO group_members (group_id, registration_id, draw_order)
		VALUES (:group_id, :registration_id, :draw_order)`, members)
	return err
}

func (s *CategoryStore) GetGroup(ctx context.Context, id string) (*bracket.Group, error) {
	var group bracket.Group
	err := s.db.GetContext(ctx, &group, "SELECT * FROM draw_groups WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *CategoryStore) GetGroupTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Group, error) {
	var group bracket.Group
	err := tx.GetContext(ctx, &group, "SELECT * FROM draw_groups WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *CategoryStore) GetGroups(ctx context.Context, categoryID string) ([]bracket.Group, error) {
	var groups []bracket.Group
	err := s.db.SelectContext(ctx, &groups, "SELECT * FROM draw_groups WHERE category_id = ? ORDER BY name ASC", categoryID)
	return groups, err
}

func (s *CategoryStore) GetGroupMembers(ctx context.Context, groupID string) ([]MemberRegistration, error) {
	var members []MemberRegistration
	err := s.db.SelectContext(ctx, &members, getGroupMembersQuery, groupID)
	return members, err
}

func (s *CategoryStore) GetGroupMembersTx(ctx context.Context, tx *sqlx.Tx, groupID string) ([]MemberRegistration, error) {
	var members []MemberRegistration
	err := tx.SelectContext(ctx, &members, getGroupMembersQuery, groupID)
	return members, err
}

// GetDrawnRegistrationIDsTx returns the registrations of the category that already sit in a group.
func (s *CategoryStore) GetDrawnRegistrationIDsTx(ctx context.Context, tx *sqlx.Tx, categoryID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.SelectContext(ctx, &ids, `
		SELECT gm.registration_id FROM group_members gm
		JOIN draw_groups g ON g.id = gm.group_id
		WHERE g.category_id = ?
	`, categoryID)
	return ids, err
}

func (s *CategoryStore) CreateRounds(ctx context.Context, tx *sqlx.Tx, rounds []bracket.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO rounds (id, category_id, number, phase)
		VALUES (:id, :category_id, :number, :phase)`, rounds)
	return err
}

func (s *CategoryStore) GetRoundsTx(ctx context.Context, tx *sqlx.Tx, categoryID string) ([]bracket.Round, error) {
	var rounds []bracket.Round
	err := tx.SelectContext(ctx, &rounds, "SELECT * FROM rounds WHERE category_id = ? ORDER BY number ASC", categoryID)
	return rounds, err
}

func (s *CategoryStore) GetRoundTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Round, error) {
	var round bracket.Round
	err := tx.GetContext(ctx, &round, "SELECT * FROM rounds WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *CategoryStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertMatchQuery, matches)
	return err
}

func (s *CategoryStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *CategoryStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *CategoryStore) GetGroupMatches(ctx context.Context, groupID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE group_id = ? ORDER BY rowid ASC", groupID)
	return matches, err
}

func (s *CategoryStore) CountGroupMatchesTx(ctx context.Context, tx *sqlx.Tx, groupID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM matches WHERE group_id = ?", groupID)
	return count, err
}

// GetKnockoutMatches returns the category's matches outside any group, in creation order.
func (s *CategoryStore) GetKnockoutMatches(ctx context.Context, categoryID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE category_id = ? AND group_id IS NULL ORDER BY rowid ASC", categoryID)
	return matches, err
}

func (s *CategoryStore) UpdateMatchResult(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, updateMatchResultQuery, match)
	return err
}
