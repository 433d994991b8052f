package service

import (
	"testing"

	"github.com/loopcart/loopcart/internal/domain/payment"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	ServiceSuite
	service PaymentService
	subID   string
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.ServiceSuite.SetupTest()
	s.service = NewPaymentService(s.params)
	sub := s.seedSubscription(s.seedPlan(), types.SubscriptionStatusActive)
	s.subID = sub.ID
}

func (s *PaymentServiceSuite) TestInsertsNewAttempt() {
	row, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, paymentAttempt("P1"))
	s.Require().NoError(err)
	s.Equal(LedgerInserted, outcome)
	s.Equal(types.PaymentStatusSuccess, row.Status)
	s.Require().NotNil(row.IyzicoPaymentID)
	s.Equal("P1", *row.IyzicoPaymentID)
}

func (s *PaymentServiceSuite) TestDuplicateSuccessDoesNotInsert() {
	_, _, err := s.service.RecordAttempt(s.ctx, s.subID, paymentAttempt("P1"))
	s.Require().NoError(err)

	row, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, paymentAttempt("P1"))
	s.Require().NoError(err)
	s.Equal(LedgerDuplicate, outcome)

	rows, err := s.payments.ListBySubscription(s.ctx, s.subID)
	s.Require().NoError(err)
	s.Len(rows, 1)
	s.Equal(rows[0].ID, row.ID)
}

func (s *PaymentServiceSuite) TestFailedThenSuccessUpgradesInPlace() {
	attempt := paymentAttempt("P2")
	attempt.Status = types.PaymentStatusFailed
	attempt.ErrorMessage = "timeout"
	_, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, attempt)
	s.Require().NoError(err)
	s.Equal(LedgerInserted, outcome)

	success := paymentAttempt("P2")
	success.GatewayTransactionID = "T2"
	row, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, success)
	s.Require().NoError(err)
	s.Equal(LedgerUpgraded, outcome)
	s.Equal(types.PaymentStatusSuccess, row.Status)
	s.Nil(row.ErrorMessage)
	s.Require().NotNil(row.IyzicoPaymentTransactionID)
	s.Equal("T2", *row.IyzicoPaymentTransactionID)

	rows, err := s.payments.ListBySubscription(s.ctx, s.subID)
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *PaymentServiceSuite) TestRepeatedFailuresInsertSeparately() {
	attempt := paymentAttempt("")
	attempt.Status = types.PaymentStatusFailed
	attempt.ErrorMessage = "declined"

	for i := 0; i < 3; i++ {
		_, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, attempt)
		s.Require().NoError(err)
		s.Equal(LedgerInserted, outcome, "failures are history, never collapsed")
	}

	rows, err := s.payments.ListBySubscription(s.ctx, s.subID)
	s.Require().NoError(err)
	s.Len(rows, 3)
}

func (s *PaymentServiceSuite) TestMatchesByTransactionIDWhenPaymentIDMissing() {
	first := payment.Attempt{
		Status:               types.PaymentStatusFailed,
		Amount:               decimal.NewFromInt(100),
		Currency:             "TRY",
		GatewayTransactionID: "T9",
		ErrorMessage:         "3ds abandoned",
	}
	_, _, err := s.service.RecordAttempt(s.ctx, s.subID, first)
	s.Require().NoError(err)

	second := payment.Attempt{
		Status:               types.PaymentStatusSuccess,
		Amount:               decimal.NewFromInt(100),
		Currency:             "TRY",
		GatewayTransactionID: "T9",
	}
	row, outcome, err := s.service.RecordAttempt(s.ctx, s.subID, second)
	s.Require().NoError(err)
	s.Equal(LedgerUpgraded, outcome)
	s.Equal(types.PaymentStatusSuccess, row.Status)
}

func (s *PaymentServiceSuite) TestRejectsMissingSubscriptionID() {
	_, _, err := s.service.RecordAttempt(s.ctx, "", paymentAttempt("P1"))
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestListGroupedCollapsesRetries() {
	failed := paymentAttempt("PX")
	failed.Status = types.PaymentStatusFailed
	failed.ErrorMessage = "first try failed"
	_, _, err := s.service.RecordAttempt(s.ctx, s.subID, failed)
	s.Require().NoError(err)

	_, _, err = s.service.RecordAttempt(s.ctx, s.subID, paymentAttempt("PX"))
	s.Require().NoError(err)
	_, _, err = s.service.RecordAttempt(s.ctx, s.subID, paymentAttempt("PY"))
	s.Require().NoError(err)

	grouped, err := s.service.ListGrouped(s.ctx, s.subID, 10)
	s.Require().NoError(err)
	s.Len(grouped, 2, "one entry per gateway charge")
	for _, g := range grouped {
		s.Equal(types.PaymentStatusSuccess, g.Status)
	}
}
