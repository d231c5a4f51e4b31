package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type fakeGroupRepo struct {
	fakeGroups
	memberships map[string]bool
}

func (f *fakeGroupRepo) Create(_ context.Context, group *models.Group) error {
	group.ID = "g-new"
	f.groups[group.ID] = *group
	return nil
}

func (f *fakeGroupRepo) Rename(_ context.Context, id, name string) (bool, error) {
	g, ok := f.groups[id]
	if !ok {
		return false, nil
	}
	g.Name = name
	f.groups[id] = g
	return true, nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.groups[id]; !ok {
		return false, nil
	}
	delete(f.groups, id)
	return true, nil
}

func (f *fakeGroupRepo) AddMember(_ context.Context, groupID, studentID string) error {
	f.memberships[groupID+"/"+studentID] = true
	return nil
}

func (f *fakeGroupRepo) RemoveMember(_ context.Context, groupID, studentID string) (bool, error) {
	key := groupID + "/" + studentID
	if !f.memberships[key] {
		return false, nil
	}
	delete(f.memberships, key)
	return true, nil
}

func newGroupFixture() (*GroupService, *fakeGroupRepo) {
	repo := &fakeGroupRepo{
		fakeGroups: fakeGroups{
			groups:  map[string]models.Group{"g1": {ID: "g1", Name: "Math"}},
			members: map[string][]models.Student{"g1": {{ID: "s1"}}},
		},
		memberships: map[string]bool{"g1/s1": true},
	}
	students := &fakeStudents{students: map[string]models.Student{
		"s1": {ID: "s1"},
		"s2": {ID: "s2"},
	}}
	return NewGroupService(repo, students, repo, nil, nil, nil), repo
}

func TestGroupServiceCreateTrimsName(t *testing.T) {
	svc, repo := newGroupFixture()

	group, err := svc.Create(context.Background(), dto.GroupRequest{Name: "  Physics "})
	require.NoError(t, err)
	assert.Equal(t, "Physics", group.Name)
	assert.Equal(t, "Physics", repo.groups["g-new"].Name)

	_, err = svc.Create(context.Background(), dto.GroupRequest{Name: "   "})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestGroupServiceRenameUnknown(t *testing.T) {
	svc, _ := newGroupFixture()

	group, err := svc.Rename(context.Background(), "g1", dto.GroupRequest{Name: "Algebra"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", group.Name)

	_, err = svc.Rename(context.Background(), "nope", dto.GroupRequest{Name: "Algebra"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestGroupServiceMembership(t *testing.T) {
	svc, repo := newGroupFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddMember(ctx, "g1", dto.GroupMemberRequest{StudentID: "s2"}))
	assert.True(t, repo.memberships["g1/s2"])

	err := svc.AddMember(ctx, "g1", dto.GroupMemberRequest{StudentID: "ghost"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	err = svc.AddMember(ctx, "nope", dto.GroupMemberRequest{StudentID: "s2"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.RemoveMember(ctx, "g1", "s1"))
	err = svc.RemoveMember(ctx, "g1", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestGroupServiceDelete(t *testing.T) {
	svc, _ := newGroupFixture()

	require.NoError(t, svc.Delete(context.Background(), "g1"))
	err := svc.Delete(context.Background(), "g1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Members(context.Background(), "g1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
