package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/dto"
)

type ExchangeRateServiceTestSuite struct {
	ledgerSuite
}

func TestExchangeRateService(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}

func (s *ExchangeRateServiceTestSuite) TestCreateCurrencyValidation() {
	_, err := s.container.Currency.CreateCurrency(s.ctx, testEntityID, dto.CreateCurrencyRequest{
		Code: "EURO", Name: "Euro",
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.container.Currency.CreateCurrency(s.ctx, testEntityID, dto.CreateCurrencyRequest{
		Code: "USD", Name: "US Dollar",
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *ExchangeRateServiceTestSuite) TestGetRateIdentity() {
	rate, err := s.container.Rates.GetRate(s.ctx, testEntityID, "USD", "USD", s.date(2026, 3, 1))
	s.Require().NoError(err)
	s.True(rate.Equal(decimal.NewFromInt(1)))
}

func (s *ExchangeRateServiceTestSuite) TestGetRateDirect() {
	rate, err := s.container.Rates.GetRate(s.ctx, testEntityID, "EUR", "USD", s.date(2026, 3, 1))
	s.Require().NoError(err)
	s.True(rate.Equal(decimal.RequireFromString("1.10")))
}

func (s *ExchangeRateServiceTestSuite) TestGetRateFallsBackToReciprocal() {
	// No USD->EUR rate is stored; the reverse pair's reciprocal serves.
	rate, err := s.container.Rates.GetRate(s.ctx, testEntityID, "USD", "EUR", s.date(2026, 3, 1))
	s.Require().NoError(err)
	expected := decimal.NewFromInt(1).Div(decimal.RequireFromString("1.10"))
	s.True(rate.Equal(expected))
}

func (s *ExchangeRateServiceTestSuite) TestGetRatePicksMostRecentEffective() {
	_, err := s.container.Rates.CreateExchangeRate(s.ctx, testEntityID, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.25"),
		EffectiveDate:    s.date(2026, 6, 1),
	}, testUserID)
	s.Require().NoError(err)

	before, err := s.container.Rates.GetRate(s.ctx, testEntityID, "EUR", "USD", s.date(2026, 5, 31))
	s.Require().NoError(err)
	s.True(before.Equal(decimal.RequireFromString("1.10")))

	after, err := s.container.Rates.GetRate(s.ctx, testEntityID, "EUR", "USD", s.date(2026, 6, 2))
	s.Require().NoError(err)
	s.True(after.Equal(decimal.RequireFromString("1.25")))
}

func (s *ExchangeRateServiceTestSuite) TestGetRateMissingPair() {
	_, err := s.container.Rates.GetRate(s.ctx, testEntityID, "EUR", "GBP", s.date(2026, 3, 1))
	s.ErrorIs(err, apperrors.ErrInvalidExchangeRate)
}

func (s *ExchangeRateServiceTestSuite) TestGetRateBeforeFirstEffectiveDate() {
	_, err := s.container.Rates.GetRate(s.ctx, testEntityID, "EUR", "USD", s.date(2025, 12, 31))
	s.ErrorIs(err, apperrors.ErrInvalidExchangeRate)
}

func (s *ExchangeRateServiceTestSuite) TestCreateExchangeRateValidation() {
	_, err := s.container.Rates.CreateExchangeRate(s.ctx, testEntityID, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "EUR",
		Rate:             decimal.NewFromInt(1),
		EffectiveDate:    s.date(2026, 1, 1),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.container.Rates.CreateExchangeRate(s.ctx, testEntityID, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.Zero,
		EffectiveDate:    s.date(2026, 1, 1),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	// Both sides must be registered currencies.
	_, err = s.container.Rates.CreateExchangeRate(s.ctx, testEntityID, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "GBP",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.3"),
		EffectiveDate:    s.date(2026, 1, 1),
	}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ExchangeRateServiceTestSuite) TestConvert() {
	converted, err := s.container.Rates.Convert(
		s.ctx, testEntityID, decimal.NewFromInt(200), "EUR", "USD", s.date(2026, 3, 1))
	s.Require().NoError(err)
	s.True(converted.Equal(decimal.RequireFromString("220")))
}

func (s *ExchangeRateServiceTestSuite) TestConvertRoundTripsWithinTolerance() {
	// Only EUR->USD is stored, so one leg of each round trip resolves
	// through the truncated reciprocal. The drift must stay far below any
	// representable money amount.
	asOf := s.date(2026, 3, 1)
	original := decimal.RequireFromString("123.45")
	tolerance := decimal.New(1, -10)

	toUSD, err := s.container.Rates.Convert(s.ctx, testEntityID, original, "EUR", "USD", asOf)
	s.Require().NoError(err)
	back, err := s.container.Rates.Convert(s.ctx, testEntityID, toUSD, "USD", "EUR", asOf)
	s.Require().NoError(err)
	s.True(back.Sub(original).Abs().LessThanOrEqual(tolerance),
		"EUR round trip drifted: %s", back)

	toEUR, err := s.container.Rates.Convert(s.ctx, testEntityID, original, "USD", "EUR", asOf)
	s.Require().NoError(err)
	back, err = s.container.Rates.Convert(s.ctx, testEntityID, toEUR, "EUR", "USD", asOf)
	s.Require().NoError(err)
	s.True(back.Sub(original).Abs().LessThanOrEqual(tolerance),
		"USD round trip drifted: %s", back)
}
