package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// AssignmentService routes NEW tickets onto staff workers. Automatic
// assignment picks the least-loaded active worker of the category's
// department; manual assignment keeps the eligibility checks but lets
// the admin choose.
type AssignmentService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	categories  repository.CategoryRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	CategoryRepo   repository.CategoryRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		categories:  deps.CategoryRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// AssignAutomatically assigns the ticket to the active worker with the
// fewest ASSIGNED/IN_PROGRESS tickets in the required department. Ties
// break on first-seen order so the selection is reproducible.
func (s *AssignmentService) AssignAutomatically(ctx context.Context, ticketCode, adminID string) (*domain.Ticket, error) {
	ticket, department, err := s.loadAssignable(ctx, ticketCode)
	if err != nil {
		return nil, err
	}

	workload, err := s.tickets.StaffWorkloadByDepartment(ctx, department.Code)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(workload) == 0 {
		s.logger.Warn("auto-assignment failed, department has no active staff",
			zap.String("ticket_code", ticketCode),
			zap.String("department_code", department.Code))
		return nil, apperrors.NewNoEligibleWorker(department.Code)
	}

	selected := workload[0]
	for _, candidate := range workload[1:] {
		if candidate.ActiveTicketCount < selected.ActiveTicketCount {
			selected = candidate
		}
	}

	staff, err := s.users.GetByID(ctx, selected.StaffID)
	if err != nil {
		return nil, notFoundOr(err, "staff", map[string]any{"staff_id": selected.StaffID})
	}

	if err := s.applyAssignment(ctx, ticket, staff, adminID, true, selected.ActiveTicketCount); err != nil {
		return nil, err
	}
	s.logger.Info("ticket auto-assigned",
		zap.String("ticket_code", ticket.Code),
		zap.String("staff_code", staff.Code),
		zap.Int("workload", selected.ActiveTicketCount))
	return ticket, nil
}

// AssignManually assigns the ticket to a specific worker. The worker must
// be active and belong to the ticket's department; no ranking is applied.
func (s *AssignmentService) AssignManually(ctx context.Context, ticketCode, staffCode, adminID string) (*domain.Ticket, error) {
	ticket, department, err := s.loadAssignable(ctx, ticketCode)
	if err != nil {
		return nil, err
	}

	staff, err := s.users.GetByCode(ctx, staffCode)
	if err != nil {
		return nil, notFoundOr(err, "staff", map[string]any{"staff_code": staffCode})
	}
	if !staff.IsActiveStaff() {
		return nil, apperrors.NewConflict("staff is not an active worker",
			map[string]any{"staff_code": staffCode, "status": string(staff.Status)})
	}
	if staff.DepartmentID == nil || *staff.DepartmentID != department.ID {
		s.logger.Warn("manual assignment rejected, department mismatch",
			zap.String("ticket_code", ticketCode),
			zap.String("staff_code", staffCode),
			zap.String("required_department", department.Code))
		return nil, apperrors.NewDepartmentMismatch(staffCode, department.Code)
	}

	if err := s.applyAssignment(ctx, ticket, staff, adminID, false, 0); err != nil {
		return nil, err
	}
	s.logger.Info("ticket manually assigned",
		zap.String("ticket_code", ticket.Code),
		zap.String("staff_code", staff.Code))
	return ticket, nil
}

// StaffWorkload lists active workers of a department with live active
// ticket counts, least loaded first.
func (s *AssignmentService) StaffWorkload(ctx context.Context, deptCode string) ([]repository.StaffWorkload, error) {
	if _, err := s.departments.GetByCode(ctx, deptCode); err != nil {
		return nil, notFoundOr(err, "department", map[string]any{"department_code": deptCode})
	}
	workload, err := s.tickets.StaffWorkloadByDepartment(ctx, deptCode)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sort.SliceStable(workload, func(i, j int) bool {
		return workload[i].ActiveTicketCount < workload[j].ActiveTicketCount
	})
	return workload, nil
}

// loadAssignable fetches the ticket, verifies it is still NEW and resolves
// the department its category belongs to.
func (s *AssignmentService) loadAssignable(ctx context.Context, ticketCode string) (*domain.Ticket, *domain.Department, error) {
	ticket, err := s.tickets.GetByCode(ctx, ticketCode)
	if err != nil {
		return nil, nil, notFoundOr(err, "ticket", map[string]any{"ticket_code": ticketCode})
	}
	if err := checkTransition(domain.ActorAdmin, ticket.Status, domain.TicketStatusAssigned); err != nil {
		return nil, nil, err
	}

	category, err := s.categories.GetByID(ctx, ticket.CategoryID)
	if err != nil {
		return nil, nil, notFoundOr(err, "category", map[string]any{"category_id": ticket.CategoryID})
	}
	department, err := s.departments.GetByID(ctx, category.DepartmentID)
	if err != nil {
		return nil, nil, notFoundOr(err, "department", map[string]any{"department_id": category.DepartmentID})
	}
	return ticket, department, nil
}

func (s *AssignmentService) applyAssignment(ctx context.Context, ticket *domain.Ticket, staff *domain.User, adminID string, automatic bool, workload int) error {
	ticket.Status = domain.TicketStatusAssigned
	ticket.AssignedTo = &staff.ID
	ticket.ManagedBy = &adminID
	ticket.ContactPhone = staff.Phone
	if err := s.saveTicket(ctx, ticket); err != nil {
		return err
	}
	s.publishAssigned(ctx, ticket, staff, adminID, automatic, workload)
	return nil
}

func (s *AssignmentService) saveTicket(ctx context.Context, ticket *domain.Ticket) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrStaleTicket) {
			return apperrors.NewConflict("ticket was modified concurrently, re-read and retry",
				map[string]any{"ticket_code": ticket.Code})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, ticket *domain.Ticket, staff *domain.User, adminID string, automatic bool, workload int) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventTicketAssigned,
		TicketCode: ticket.Code,
		Actor:      events.Actor{Role: domain.ActorAdmin, UserID: adminID},
		Timestamp:  s.now(),
		Payload: events.TicketAssignedPayload{
			AssigneeID: staff.ID,
			Title:      ticket.Title,
			Automatic:  automatic,
			Workload:   workload,
		},
	})
}
