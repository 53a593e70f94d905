package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

type assignmentFixture struct {
	svc        *AssignmentService
	tickets    *memTicketRepo
	users      *memUserRepo
	dispatcher *recordingDispatcher
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	tickets := newMemTicketRepo()
	users := newMemUserRepo()
	dispatcher := &recordingDispatcher{}

	svc := NewAssignmentService(AssignmentDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		CategoryRepo: newMemCategoryRepo(domain.Category{
			ID: "cat-1", Code: "NETWORK", Name: "Network and Wifi",
			DepartmentID: "dept-1", SLAResolveHours: 8,
		}),
		DepartmentRepo: newMemDepartmentRepo(domain.Department{
			ID: "dept-1", Code: "IT", Name: "IT Support", IsActive: true,
		}),
		Dispatcher: dispatcher,
	})
	svc.now = func() time.Time { return baseTime }
	return &assignmentFixture{svc: svc, tickets: tickets, users: users, dispatcher: dispatcher}
}

func (f *assignmentFixture) seedNewTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Code:            "TKT-ASSIGN1",
		Title:           "wifi is down in 204",
		Description:     "no connectivity",
		Status:          domain.TicketStatusNew,
		RequesterID:     "user-1",
		CategoryID:      "cat-1",
		LocationID:      "loc-1",
		CreatedAt:       baseTime,
		ResolveDeadline: baseTime.Add(8 * time.Hour),
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func (f *assignmentFixture) seedStaff(id, code string) *domain.User {
	dept := "dept-1"
	return f.users.add(domain.User{
		ID: id, Code: code, FullName: "Staff " + code,
		Email: code + "@campus.test", Phone: "555-" + code,
		Role: domain.RoleStaff, DepartmentID: &dept,
		Status: domain.UserStatusActive,
	})
}

func TestAssignAutomaticallyPicksLeastLoaded(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	for _, staff := range []string{"staff-1", "staff-2", "staff-3", "staff-4"} {
		f.seedStaff(staff, staff)
	}
	f.tickets.workloads["IT"] = []repository.StaffWorkload{
		{StaffID: "staff-1", StaffCode: "staff-1", DepartmentCode: "IT", ActiveTicketCount: 2},
		{StaffID: "staff-2", StaffCode: "staff-2", DepartmentCode: "IT", ActiveTicketCount: 2},
		{StaffID: "staff-3", StaffCode: "staff-3", DepartmentCode: "IT", ActiveTicketCount: 1},
		{StaffID: "staff-4", StaffCode: "staff-4", DepartmentCode: "IT", ActiveTicketCount: 3},
	}

	assigned, err := f.svc.AssignAutomatically(context.Background(), ticket.Code, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "staff-3", *assigned.AssignedTo)
	require.NotNil(t, assigned.ManagedBy)
	assert.Equal(t, "admin-1", *assigned.ManagedBy)
	assert.Equal(t, "555-staff-3", assigned.ContactPhone)

	published := f.dispatcher.byType(events.EventTicketAssigned)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.TicketAssignedPayload)
	require.True(t, ok)
	assert.True(t, payload.Automatic)
	assert.Equal(t, 1, payload.Workload)
}

func TestAssignAutomaticallyTieBreaksOnFirstSeen(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	f.seedStaff("staff-1", "staff-1")
	f.seedStaff("staff-2", "staff-2")
	f.tickets.workloads["IT"] = []repository.StaffWorkload{
		{StaffID: "staff-1", StaffCode: "staff-1", DepartmentCode: "IT", ActiveTicketCount: 2},
		{StaffID: "staff-2", StaffCode: "staff-2", DepartmentCode: "IT", ActiveTicketCount: 2},
	}

	assigned, err := f.svc.AssignAutomatically(context.Background(), ticket.Code, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", *assigned.AssignedTo)
}

func TestAssignAutomaticallyNoEligibleWorker(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)

	_, err := f.svc.AssignAutomatically(context.Background(), ticket.Code, "admin-1")
	assert.True(t, apperrors.IsCode(err, "NO_ELIGIBLE_WORKER"))
}

func TestAssignRejectsNonNewTicket(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	ticket.Status = domain.TicketStatusAssigned
	ticket.AssignedTo = strPtr("staff-1")
	require.NoError(t, f.tickets.Update(context.Background(), ticket))

	_, err := f.svc.AssignAutomatically(context.Background(), ticket.Code, "admin-1")
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestAssignManuallyChecksDepartment(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	otherDept := "dept-2"
	f.users.add(domain.User{
		ID: "staff-9", Code: "staff-9", FullName: "Staff Nine",
		Role: domain.RoleStaff, DepartmentID: &otherDept,
		Status: domain.UserStatusActive,
	})

	_, err := f.svc.AssignManually(context.Background(), ticket.Code, "staff-9", "admin-1")
	assert.True(t, apperrors.IsCode(err, "DEPARTMENT_MISMATCH"))
}

func TestAssignManuallyRejectsInactiveStaff(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	dept := "dept-1"
	f.users.add(domain.User{
		ID: "staff-5", Code: "staff-5", FullName: "Staff Five",
		Role: domain.RoleStaff, DepartmentID: &dept,
		Status: domain.UserStatusInactive,
	})

	_, err := f.svc.AssignManually(context.Background(), ticket.Code, "staff-5", "admin-1")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestAssignManuallyUnknownStaff(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)

	_, err := f.svc.AssignManually(context.Background(), ticket.Code, "staff-missing", "admin-1")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestAssignManuallySucceedsRegardlessOfLoad(t *testing.T) {
	f := newAssignmentFixture(t)
	ticket := f.seedNewTicket(t)
	f.seedStaff("staff-1", "staff-1")

	assigned, err := f.svc.AssignManually(context.Background(), ticket.Code, "staff-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	assert.Equal(t, "staff-1", *assigned.AssignedTo)

	published := f.dispatcher.byType(events.EventTicketAssigned)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.TicketAssignedPayload)
	require.True(t, ok)
	assert.False(t, payload.Automatic)
}

func TestStaffWorkloadSortedAscending(t *testing.T) {
	f := newAssignmentFixture(t)
	f.tickets.workloads["IT"] = []repository.StaffWorkload{
		{StaffID: "staff-1", StaffCode: "staff-1", DepartmentCode: "IT", ActiveTicketCount: 3},
		{StaffID: "staff-2", StaffCode: "staff-2", DepartmentCode: "IT", ActiveTicketCount: 0},
		{StaffID: "staff-3", StaffCode: "staff-3", DepartmentCode: "IT", ActiveTicketCount: 1},
	}

	workload, err := f.svc.StaffWorkload(context.Background(), "IT")
	require.NoError(t, err)
	require.Len(t, workload, 3)
	assert.Equal(t, "staff-2", workload[0].StaffCode)
	assert.Equal(t, "staff-3", workload[1].StaffCode)
	assert.Equal(t, "staff-1", workload[2].StaffCode)
}

func TestStaffWorkloadUnknownDepartment(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.svc.StaffWorkload(context.Background(), "NOPE")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
