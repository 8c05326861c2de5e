package teamsync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orgbot/pkg/github"
)

// MockAPIClient is a mock implementation of github.APIClient for testing
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) FetchFileContent(ctx context.Context, repo github.Repo, path, ref string) ([]byte, error) {
	args := m.Called(ctx, repo, path, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAPIClient) ListChangedFiles(ctx context.Context, repo github.Repo, number int) ([]string, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAPIClient) AddLabels(ctx context.Context, repo github.Repo, number int, labels []string) error {
	args := m.Called(ctx, repo, number, labels)
	return args.Error(0)
}

func (m *MockAPIClient) SetPullRequestState(ctx context.Context, repo github.Repo, number int, state github.PullRequestState) error {
	args := m.Called(ctx, repo, number, state)
	return args.Error(0)
}

func (m *MockAPIClient) GetTeam(ctx context.Context, org, slug string) (*github.TeamSnapshot, error) {
	args := m.Called(ctx, org, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.TeamSnapshot), args.Error(1)
}

func (m *MockAPIClient) ListTeamMembers(ctx context.Context, org, slug string) ([]string, error) {
	args := m.Called(ctx, org, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAPIClient) CreateTeam(ctx context.Context, org, name string) error {
	args := m.Called(ctx, org, name)
	return args.Error(0)
}

func (m *MockAPIClient) AddTeamMember(ctx context.Context, org, slug, username string) error {
	args := m.Called(ctx, org, slug, username)
	return args.Error(0)
}

func (m *MockAPIClient) RemoveTeamMember(ctx context.Context, org, slug, username string) error {
	args := m.Called(ctx, org, slug, username)
	return args.Error(0)
}

func (m *MockAPIClient) AuthenticatedUser(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSyncCreatesAbsentTeamAndRemovesCreator(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "infra").Return(&github.TeamSnapshot{Exists: false, Slug: "infra"}, nil)
	client.On("CreateTeam", mock.Anything, "myorg", "Platform Infrastructure").Return(nil)
	client.On("AuthenticatedUser", mock.Anything).Return("svc-bot", nil)
	client.On("RemoveTeamMember", mock.Anything, "myorg", "infra", "svc-bot").Return(nil)
	client.On("AddTeamMember", mock.Anything, "myorg", "infra", "alice").Return(nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Platform Infrastructure", Short: "infra", Slug: "infra", Members: []string{"alice"}},
	})

	require.NoError(t, err)
	require.Len(t, result.Teams, 1)
	assert.True(t, result.Teams[0].Created)
	assert.Equal(t, []string{"svc-bot"}, result.Teams[0].Removed)
	assert.Equal(t, []string{"alice"}, result.Teams[0].Added)
	client.AssertExpectations(t)
}

func TestSyncKeepsCreatorWhenDesired(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "docs").Return(&github.TeamSnapshot{Exists: false, Slug: "docs"}, nil)
	client.On("CreateTeam", mock.Anything, "myorg", "Docs").Return(nil)
	client.On("AuthenticatedUser", mock.Anything).Return("svc-bot", nil)
	client.On("AddTeamMember", mock.Anything, "myorg", "docs", "svc-bot").Return(nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Docs", Slug: "docs", Members: []string{"svc-bot"}},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Teams[0].Removed)
	client.AssertNotCalled(t, "RemoveTeamMember", mock.Anything, "myorg", "docs", "svc-bot")
	client.AssertExpectations(t)
}

func TestSyncUpdatesExistingTeam(t *testing.T) {
	client := &MockAPIClient{}
	var order []string

	client.On("GetTeam", mock.Anything, "myorg", "infra").Return(&github.TeamSnapshot{Exists: true, Slug: "infra"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "infra").Return([]string{"bob", "carol"}, nil)
	client.On("RemoveTeamMember", mock.Anything, "myorg", "infra", "carol").Run(func(_ mock.Arguments) {
		order = append(order, "remove carol")
	}).Return(nil)
	client.On("AddTeamMember", mock.Anything, "myorg", "infra", "alice").Run(func(_ mock.Arguments) {
		order = append(order, "add alice")
	}).Return(nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Infra", Slug: "infra", Members: []string{"alice", "bob"}},
	})

	require.NoError(t, err)
	assert.False(t, result.Teams[0].Created)
	assert.Equal(t, []string{"carol"}, result.Teams[0].Removed)
	assert.Equal(t, []string{"alice"}, result.Teams[0].Added)
	assert.Equal(t, []string{"remove carol", "add alice"}, order, "removals are issued before additions")

	// The update path never touches the authenticated user.
	client.AssertNotCalled(t, "AuthenticatedUser", mock.Anything)
	client.AssertExpectations(t)
}

func TestSyncConvergedTeamMakesNoChanges(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "docs").Return(&github.TeamSnapshot{Exists: true, Slug: "docs"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "docs").Return([]string{"carol"}, nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Docs", Slug: "docs", Members: []string{"carol"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalChanges())
	client.AssertNotCalled(t, "AddTeamMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "RemoveTeamMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncToleratesIdempotentConflicts(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "infra").Return(&github.TeamSnapshot{Exists: true, Slug: "infra"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "infra").Return([]string{"carol"}, nil)
	client.On("RemoveTeamMember", mock.Anything, "myorg", "infra", "carol").Return(&github.GitHubError{
		Type:    github.ErrorTypeNotFound,
		Message: "Member not found",
	})
	client.On("AddTeamMember", mock.Anything, "myorg", "infra", "alice").Return(&github.GitHubError{
		Type:    github.ErrorTypeValidation,
		Message: "Validation failed: user is already a member of the team",
	})

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Infra", Slug: "infra", Members: []string{"alice"}},
	})

	require.NoError(t, err, "remove-absent and add-existing are no-ops, not failures")
	assert.Empty(t, result.Teams[0].Failed)
	assert.Empty(t, result.Teams[0].Added)
	assert.Empty(t, result.Teams[0].Removed)
}

func TestSyncContinuesAfterTeamFailure(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "broken").Return(nil, &github.GitHubError{
		Type:    github.ErrorTypePermission,
		Message: "Insufficient permissions",
	})
	client.On("GetTeam", mock.Anything, "myorg", "docs").Return(&github.TeamSnapshot{Exists: true, Slug: "docs"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "docs").Return(nil, nil)
	client.On("AddTeamMember", mock.Anything, "myorg", "docs", "carol").Return(nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Broken", Slug: "broken", Members: []string{"alice"}},
		{Name: "Docs", Slug: "docs", Members: []string{"carol"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 teams")
	require.Len(t, result.Teams, 2)
	assert.NotEmpty(t, result.Teams[0].Failed)
	assert.Equal(t, []string{"carol"}, result.Teams[1].Added, "later teams still run after an earlier failure")
}

func TestSyncRecordsPartialMemberFailures(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "infra").Return(&github.TeamSnapshot{Exists: true, Slug: "infra"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "infra").Return(nil, nil)
	client.On("AddTeamMember", mock.Anything, "myorg", "infra", "alice").Return(errors.New("boom"))
	client.On("AddTeamMember", mock.Anything, "myorg", "infra", "bob").Return(nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	result, err := orchestrator.Sync(context.Background(), []TeamSpec{
		{Name: "Infra", Slug: "infra", Members: []string{"alice", "bob"}},
	})

	require.Error(t, err)
	assert.Contains(t, result.Teams[0].Failed, "add alice")
	assert.Equal(t, []string{"bob"}, result.Teams[0].Added, "one failed username does not stop the others")
}

func TestPlan(t *testing.T) {
	client := &MockAPIClient{}
	client.On("GetTeam", mock.Anything, "myorg", "infra").Return(&github.TeamSnapshot{Exists: false, Slug: "infra"}, nil)
	client.On("GetTeam", mock.Anything, "myorg", "docs").Return(&github.TeamSnapshot{Exists: true, Slug: "docs"}, nil)
	client.On("ListTeamMembers", mock.Anything, "myorg", "docs").Return([]string{"dave"}, nil)

	orchestrator := NewOrchestrator(client, "myorg", testLogger())
	plans, err := orchestrator.Plan(context.Background(), []TeamSpec{
		{Name: "Infra", Slug: "infra", Members: []string{"alice"}},
		{Name: "Docs", Slug: "docs", Members: []string{"carol"}},
	})

	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.True(t, plans[0].Create)
	assert.Equal(t, []string{"alice"}, plans[0].Diff.ToAdd)
	assert.Empty(t, plans[0].Diff.ToRemove)

	assert.False(t, plans[1].Create)
	assert.Equal(t, []string{"carol"}, plans[1].Diff.ToAdd)
	assert.Equal(t, []string{"dave"}, plans[1].Diff.ToRemove)

	// Plan never mutates anything.
	client.AssertNotCalled(t, "CreateTeam", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "AddTeamMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "RemoveTeamMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
