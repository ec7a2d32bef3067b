package services

import (
	"context"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
)

type (
	ThesisGroup struct {
		ID        uuid.UUID  `column:"id" json:"id"`
		Title     string     `column:"title" json:"title"`
		Program   *string    `column:"program" json:"program"`
		AdviserID *uuid.UUID `column:"adviser_id" json:"adviserId"`
		CreatedAt time.Time  `column:"created_at" json:"createdAt"`
		UpdatedAt time.Time  `column:"updated_at" json:"updatedAt"`
	}

	NewThesisGroup struct {
		Title     string     `column:"title"`
		Program   *string    `column:"program"`
		AdviserID *uuid.UUID `column:"adviser_id"`
	}

	ThesisGroupPatch struct {
		Title     psql.Optional[string]    `column:"title" json:"title"`
		Program   psql.Optional[string]    `column:"program" json:"program"`
		AdviserID psql.Optional[uuid.UUID] `column:"adviser_id" json:"adviserId"`
	}

	ThesisGroupService struct {
		*psql.Mutable[ThesisGroup, NewThesisGroup, ThesisGroupPatch]
	}
)

func newThesisGroupService(ex *psql.Executor) *ThesisGroupService {
	return &ThesisGroupService{psql.NewMutable[ThesisGroup, NewThesisGroup, ThesisGroupPatch](ex, string(ThesisGroups))}
}

func (s *ThesisGroupService) ListByAdviser(ctx context.Context, adviserID uuid.UUID) ([]ThesisGroup, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"adviser_id": adviserID}, OrderBy: "title"})
}

// ListByMember lists the groups a student belongs to.
func (s *ThesisGroupService) ListByMember(ctx context.Context, studentID uuid.UUID) ([]ThesisGroup, error) {
	return psql.QueryAll[ThesisGroup](ctx, s.Executor(), `SELECT g.* FROM "thesis_groups" g
		JOIN "group_members" m ON m."group_id" = g."id"
		WHERE m."student_id" = $1 ORDER BY g."title" ASC`, studentID)
}

type (
	GroupMember struct {
		GroupID   uuid.UUID `column:"group_id" json:"groupId"`
		StudentID uuid.UUID `column:"student_id" json:"studentId"`
		JoinedAt  time.Time `column:"joined_at" json:"joinedAt"`
	}

	NewGroupMember struct {
		GroupID   uuid.UUID `column:"group_id"`
		StudentID uuid.UUID `column:"student_id"`
	}

	GroupMemberService struct {
		*psql.JoinTable[GroupMember, NewGroupMember]
	}
)

func newGroupMemberService(ex *psql.Executor) *GroupMemberService {
	return &GroupMemberService{psql.NewJoinTable[GroupMember, NewGroupMember](ex, string(GroupMembers))}
}

func (s *GroupMemberService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]GroupMember, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"group_id": groupID}, OrderBy: "joined_at"})
}

func (s *GroupMemberService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]GroupMember, error) {
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"student_id": studentID}, OrderBy: "joined_at"})
}

// ReplaceMembers makes studentIDs the exact member list of the group.
func (s *GroupMemberService) ReplaceMembers(ctx context.Context, groupID uuid.UUID, studentIDs []uuid.UUID) ([]GroupMember, error) {
	members := make([]NewGroupMember, 0, len(studentIDs))
	for _, id := range studentIDs {
		members = append(members, NewGroupMember{GroupID: groupID, StudentID: id})
	}
	return s.Replace(ctx, psql.Where{"group_id": groupID}, members)
}
