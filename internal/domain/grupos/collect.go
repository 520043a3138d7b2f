package grupos

import (
	"context"
	"fmt"
	"sort"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/tx"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/ledger"
	"backoffice/internal/domain/money"
	"backoffice/internal/domain/receipts"
	"backoffice/pkg/logger"
)

// ReceiptIssuer creates receipts inside the collection transaction.
// Satisfied by receipts.Service.
type ReceiptIssuer interface {
	Issue(ctx context.Context, receipt *receipts.Receipt) error
}

// CreditRecorder appends credit entries for collected money. Satisfied by
// ledger.Service.
type CreditRecorder interface {
	CreateEntry(ctx context.Context, entry *ledger.CreditEntry) error
}

// CollectInput describes one bulk collection run. PaymentIDs and
// PassengerIDs are mutually exclusive.
type CollectInput struct {
	GroupID      id.ID
	PaymentIDs   []id.ID
	PassengerIDs []id.ID

	CreateReceipts bool
	IssueDate      *time.Time
	Concept        string

	// AmountString is the spelled-out amount copied onto every receipt
	// issued by the run.
	AmountString string

	PaymentFeeAmount   *types.Money
	PaymentFeeCurrency string
	PaymentMethodID    *id.ID

	// AccountID, when set, records one credit entry per issued receipt
	// against that credit account.
	AccountID *id.ID
}

// Bucket groups payments settled together under one receipt.
type Bucket struct {
	BookingID  id.ID       `json:"bookingId"`
	ClientID   id.ID       `json:"clientId"`
	Currency   string      `json:"currency"`
	PaymentIDs []id.ID     `json:"paymentIds"`
	Amount     types.Money `json:"amount"`
	ReceiptID  *id.ID      `json:"receiptId,omitempty"`
}

// CollectResult summarizes a collection run.
type CollectResult struct {
	SettledCount  int      `json:"settled_count"`
	ReceiptsCount int      `json:"receipts_count"`
	Buckets       []Bucket `json:"buckets"`
}

// CollectService settles pending installments in bulk.
type CollectService struct {
	groups    GroupRepository
	payments  PaymentRepository
	receipts  ReceiptIssuer
	credit    CreditRecorder // optional
	txManager tx.Manager
}

func NewCollectService(groups GroupRepository, payments PaymentRepository, issuer ReceiptIssuer, credit CreditRecorder, txManager tx.Manager) *CollectService {
	return &CollectService{
		groups:    groups,
		payments:  payments,
		receipts:  issuer,
		credit:    credit,
		txManager: txManager,
	}
}

// Collect resolves the target payments, validates the whole batch, then
// settles it in one transaction. Payments are bucketed by (booking,
// client, currency); a receipt, if requested, is issued per bucket so
// installments due on the same combination merge into a single receipt.
func (s *CollectService) Collect(ctx context.Context, in CollectInput) (*CollectResult, error) {
	if (len(in.PaymentIDs) > 0) == (len(in.PassengerIDs) > 0) {
		return nil, apperror.NewValidation("provide either payment IDs or passenger IDs, not both").
			WithDetail("fields", []string{"paymentIds", "passengerIds"})
	}

	group, err := s.loadGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	payments, err := s.resolvePayments(ctx, group, in)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, apperror.NewValidation("no pending payments to collect").
			WithDetail("group_id", in.GroupID)
	}

	buckets := bucketPayments(payments)
	userID := appctx.GetUserID(ctx)
	now := time.Now().UTC()
	issueDate := now
	if in.IssueDate != nil {
		issueDate = *in.IssueDate
	}

	result := &CollectResult{}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range buckets {
			bucket := &buckets[i]

			var receiptID *id.ID
			if in.CreateReceipts {
				receipt := &receipts.Receipt{
					AgencyID:           group.AgencyID,
					BookingID:          bucket.BookingID,
					ClientID:           bucket.ClientID,
					Amount:             bucket.Amount,
					Currency:           bucket.Currency,
					AmountString:       in.AmountString,
					PaymentFeeAmount:   in.PaymentFeeAmount,
					PaymentFeeCurrency: in.PaymentFeeCurrency,
					PaymentMethodID:    in.PaymentMethodID,
					Concept:            in.Concept,
					IssueDate:          issueDate,
					ServiceIDs:         bucketServiceIDs(payments, bucket.PaymentIDs),
					CreatedBy:          userID,
				}
				if err := s.receipts.Issue(ctx, receipt); err != nil {
					return fmt.Errorf("issue bucket receipt: %w", err)
				}
				receiptID = &receipt.ID
				bucket.ReceiptID = receiptID
				result.ReceiptsCount++

				if err := s.recordCredit(ctx, in.AccountID, receipt); err != nil {
					return err
				}
			}

			for _, paymentID := range bucket.PaymentIDs {
				payment := findPayment(payments, paymentID)
				payment.Status = StatusPagada
				payment.PaidAt = &now
				payment.PaidBy = userID
				payment.ReceiptID = receiptID
				if err := s.payments.SetStatus(ctx, payment); err != nil {
					return fmt.Errorf("settle payment: %w", err)
				}
				if err := s.payments.CreateAudit(ctx, &PaymentAudit{
					ID:         id.New(),
					PaymentID:  payment.ID,
					FromStatus: StatusPendiente,
					ToStatus:   StatusPagada,
					ChangedBy:  userID,
					ChangedAt:  now,
					Note:       "cobranza en lote",
				}); err != nil {
					return fmt.Errorf("audit settlement: %w", err)
				}
				result.SettledCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Buckets = buckets
	logger.Info(ctx, "bulk collection settled",
		"group_id", in.GroupID,
		"settled", result.SettledCount,
		"receipts", result.ReceiptsCount,
		"buckets", len(buckets))
	return result, nil
}

func (s *CollectService) loadGroup(ctx context.Context, groupID id.ID) (*TravelGroup, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	agencyID := appctx.GetAgencyID(ctx)
	if agencyID != "" && group.AgencyID != agencyID {
		return nil, apperror.NewForbidden("travel group belongs to another agency").
			WithDetail("group_id", groupID)
	}
	if group.Locked {
		return nil, apperror.NewGroupLocked(groupID)
	}
	return group, nil
}

// resolvePayments loads the target payments and rejects the whole batch on
// any out-of-group or non-pending row.
func (s *CollectService) resolvePayments(ctx context.Context, group *TravelGroup, in CollectInput) ([]ClientPayment, error) {
	if len(in.PassengerIDs) > 0 {
		passengers, err := s.groups.GetPassengers(ctx, group.ID, in.PassengerIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve passengers: %w", err)
		}
		if len(passengers) != len(in.PassengerIDs) {
			return nil, apperror.NewValidation("some passengers do not belong to this group").
				WithDetail("requested", len(in.PassengerIDs)).
				WithDetail("resolved", len(passengers))
		}
		var payments []ClientPayment
		for _, pax := range passengers {
			pending, err := s.payments.ListPending(ctx, pax.BookingID, pax.ClientID)
			if err != nil {
				return nil, fmt.Errorf("list pending payments: %w", err)
			}
			payments = append(payments, pending...)
		}
		return payments, nil
	}

	// Membership is only checked for explicit payment IDs; the passenger
	// path resolves through the group already.
	members, err := s.groupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.GetPayments(ctx, in.PaymentIDs)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	if len(payments) != len(in.PaymentIDs) {
		return nil, apperror.NewNotFound("client payment", in.PaymentIDs)
	}
	for i := range payments {
		p := &payments[i]
		if p.Status != StatusPendiente {
			return nil, apperror.NewPaymentNotPending(p.ID, string(p.Status))
		}
		if !members[memberKey{p.BookingID, p.ClientID}] {
			return nil, apperror.NewValidation("payment does not belong to this group").
				WithDetail("payment_id", p.ID)
		}
	}
	return payments, nil
}

type memberKey struct {
	bookingID id.ID
	clientID  id.ID
}

func (s *CollectService) groupMembers(ctx context.Context, groupID id.ID) (map[memberKey]bool, error) {
	passengers, err := s.groups.ListGroupPassengers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group passengers: %w", err)
	}
	members := make(map[memberKey]bool, len(passengers))
	for _, pax := range passengers {
		members[memberKey{pax.BookingID, pax.ClientID}] = true
	}
	return members, nil
}

func (s *CollectService) recordCredit(ctx context.Context, accountID *id.ID, receipt *receipts.Receipt) error {
	if accountID == nil || s.credit == nil {
		return nil
	}
	entry := &ledger.CreditEntry{
		AccountID: *accountID,
		Amount:    receipt.Amount,
		Currency:  receipt.Currency,
		Concept:   receipt.Concept,
		DocType:   "RECIBO",
		ReceiptID: &receipt.ID,
		BookingID: &receipt.BookingID,
	}
	if err := s.credit.CreateEntry(ctx, entry); err != nil {
		return fmt.Errorf("record collected credit: %w", err)
	}
	return nil
}

// bucketPayments groups payments by (booking, client, currency) with the
// currency normalized first. Output order is deterministic.
func bucketPayments(payments []ClientPayment) []Bucket {
	type bucketKey struct {
		bookingID id.ID
		clientID  id.ID
		currency  string
	}

	index := make(map[bucketKey]*Bucket)
	var order []bucketKey
	for i := range payments {
		p := &payments[i]
		key := bucketKey{p.BookingID, p.ClientID, money.Normalize(p.Currency)}
		bucket, ok := index[key]
		if !ok {
			bucket = &Bucket{
				BookingID: key.bookingID,
				ClientID:  key.clientID,
				Currency:  key.currency,
			}
			index[key] = bucket
			order = append(order, key)
		}
		bucket.PaymentIDs = append(bucket.PaymentIDs, p.ID)
		bucket.Amount = bucket.Amount.Add(p.Amount)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].bookingID != order[j].bookingID {
			return order[i].bookingID.String() < order[j].bookingID.String()
		}
		if order[i].clientID != order[j].clientID {
			return order[i].clientID.String() < order[j].clientID.String()
		}
		return order[i].currency < order[j].currency
	})

	buckets := make([]Bucket, 0, len(order))
	for _, key := range order {
		buckets = append(buckets, *index[key])
	}
	return buckets
}

func bucketServiceIDs(payments []ClientPayment, paymentIDs []id.ID) []id.ID {
	seen := make(map[id.ID]bool)
	var serviceIDs []id.ID
	for _, paymentID := range paymentIDs {
		p := findPayment(payments, paymentID)
		if p.ServiceID != nil && !seen[*p.ServiceID] {
			seen[*p.ServiceID] = true
			serviceIDs = append(serviceIDs, *p.ServiceID)
		}
	}
	return serviceIDs
}

func findPayment(payments []ClientPayment, paymentID id.ID) *ClientPayment {
	for i := range payments {
		if payments[i].ID == paymentID {
			return &payments[i]
		}
	}
	return nil
}
