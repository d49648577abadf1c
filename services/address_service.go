package services

import (
	"context"
	"errors"

	"food-order-service/apperrors"
	"food-order-service/logger"
	"food-order-service/models"
	"food-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressService manages the address book orders snapshot their delivery
// address from.
type AddressService interface {
	AddAddress(ctx context.Context, userID uuid.UUID, req models.CreateAddressRequest) (*models.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressServiceImpl struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) AddressService {
	return &addressServiceImpl{repo: repo, logger: logger}
}

func (s *addressServiceImpl) AddAddress(ctx context.Context, userID uuid.UUID, req models.CreateAddressRequest) (*models.Address, error) {
	address := &models.Address{
		UserID:      userID,
		Label:       req.Label,
		AddressLine: req.AddressLine,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Lat:         req.Lat,
		Lon:         req.Lon,
		IsDefault:   req.IsDefault,
	}
	if err := s.repo.Create(ctx, address); err != nil {
		logger.For(ctx, s.logger).Error("Failed to add address", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to add address", err)
	}
	return address, nil
}

func (s *addressServiceImpl) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	list, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to list addresses", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch addresses", err)
	}
	return list, nil
}

func (s *addressServiceImpl) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.SetDefault(ctx, addressID, userID)
	if err != nil {
		return nil, addressError(err, "Failed to set default address")
	}
	return address, nil
}

func (s *addressServiceImpl) RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.repo.Delete(ctx, addressID, userID); err != nil {
		return addressError(err, "Failed to remove address")
	}
	return nil
}

func addressError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Address not found")
	}
	return apperrors.Internal(msg, err)
}
