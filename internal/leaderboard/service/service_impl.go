package service

import (
	"context"
	"sort"
	"time"

	"github.com/kudamusaisiwa/royalprecast/internal/cache"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cacheTTL = 60 * time.Second

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Scoring *config.ScoringConfigHolder
	Cache   *cache.ResultCache `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	scoring *config.ScoringConfigHolder
	cache   *cache.ResultCache
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("leaderboard.service"),
		repo:    p.Repo,
		scoring: p.Scoring,
		cache:   p.Cache,
	}
}

type bucket struct {
	staffID        string
	staffName      string
	newOrders      int64
	newOrdersValue decimal.Decimal
	paidOrders     map[int64]struct{}
	paidRevenue    decimal.Decimal
}

func (s *Service) Compute(ctx context.Context, req domain.ComputeRequest) (domain.ComputeResponse, error) {
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return domain.ComputeResponse{}, domain.ErrInvalidWindow
	}

	cacheKey := "leaderboard:" + req.From.UTC().Format(time.RFC3339) + ":" + req.To.UTC().Format(time.RFC3339)
	var cached domain.ComputeResponse
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	orders, err := s.repo.OrdersInWindow(ctx, s.db, req.From, req.To)
	if err != nil {
		return domain.ComputeResponse{}, err
	}
	payments, err := s.repo.PaymentsInWindow(ctx, s.db, req.From, req.To)
	if err != nil {
		return domain.ComputeResponse{}, err
	}

	buckets := make(map[string]*bucket)
	get := func(staffID, staffName string) *bucket {
		b, ok := buckets[staffID]
		if !ok {
			b = &bucket{
				staffID:        staffID,
				staffName:      staffName,
				newOrdersValue: decimal.Zero,
				paidRevenue:    decimal.Zero,
				paidOrders:     make(map[int64]struct{}),
			}
			buckets[staffID] = b
		}
		if b.staffName == "" {
			b.staffName = staffName
		}
		return b
	}

	for _, o := range orders {
		staffID, staffName := attribute(o.CreatedBy, o.CreatedByName, o.CustomerCreatedBy, o.CustomerCreatorNm)
		b := get(staffID, staffName)
		b.newOrders++
		b.newOrdersValue = money.Round(b.newOrdersValue.Add(o.TotalAmount))
	}
	for _, p := range payments {
		staffID, staffName := attribute(p.CreatedBy, p.CreatedByName, p.CustomerCreatedBy, p.CustomerCreatorNm)
		b := get(staffID, staffName)
		b.paidOrders[p.OrderID] = struct{}{}
		b.paidRevenue = money.Round(b.paidRevenue.Add(p.Amount))
	}

	weights := s.scoring.Get()
	paidRevenueW := decimal.NewFromFloat(weights.PaidRevenueWeight)
	newValueW := decimal.NewFromFloat(weights.NewOrdersValueWeight)
	conversionW := decimal.NewFromFloat(weights.ConversionWeight)
	hundred := decimal.NewFromInt(100)

	rows := make([]domain.Row, 0, len(buckets))
	for _, b := range buckets {
		paidOrders := int64(len(b.paidOrders))
		conversion := decimal.Zero
		if b.newOrders > 0 {
			conversion = decimal.NewFromInt(paidOrders).
				Div(decimal.NewFromInt(b.newOrders)).
				Mul(hundred).
				Round(2)
		}
		score := b.paidRevenue.Mul(paidRevenueW).
			Add(b.newOrdersValue.Mul(newValueW)).
			Add(conversion.Mul(conversionW)).
			Round(2)

		rows = append(rows, domain.Row{
			StaffID:        b.staffID,
			StaffName:      b.staffName,
			NewOrders:      b.newOrders,
			NewOrdersValue: b.newOrdersValue,
			PaidOrders:     paidOrders,
			PaidRevenue:    b.paidRevenue,
			ConversionRate: conversion,
			WeightedScore:  score,
		})
	}

	// Highest score first; the unattributed bucket trails regardless of
	// its score.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StaffID == domain.UnattributedBucket {
			return false
		}
		if rows[j].StaffID == domain.UnattributedBucket {
			return true
		}
		if !rows[i].WeightedScore.Equal(rows[j].WeightedScore) {
			return rows[i].WeightedScore.GreaterThan(rows[j].WeightedScore)
		}
		return rows[i].StaffID < rows[j].StaffID
	})

	resp := domain.ComputeResponse{From: req.From, To: req.To, Rows: rows}
	s.cache.Set(ctx, cacheKey, resp, cacheTTL)
	return resp, nil
}

func attribute(orderBy, orderByName, customerBy, customerByName string) (string, string) {
	if orderBy != "" {
		return orderBy, orderByName
	}
	if customerBy != "" {
		return customerBy, customerByName
	}
	return domain.UnattributedBucket, "Unattributed"
}
