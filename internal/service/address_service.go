package service

import (
	"context"
	"fmt"
	"strings"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type AddressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) *AddressService {
	return &AddressService{addresses: addresses}
}

type AddressInput struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Street) == "" || strings.TrimSpace(in.City) == "" ||
		strings.TrimSpace(in.PostalCode) == "" || strings.TrimSpace(in.Country) == "" {
		return fmt.Errorf("%w: street, city, postal_code and country are required", model.ErrInvalidInput)
	}
	return nil
}

func (s *AddressService) List(ctx context.Context, id auth.Identity) ([]model.Address, error) {
	return s.addresses.ListByUser(ctx, id.UserID)
}

func (s *AddressService) Create(ctx context.Context, id auth.Identity, in AddressInput) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	address := &model.Address{
		UserID:     id.UserID,
		Street:     in.Street,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) Update(ctx context.Context, id auth.Identity, addressID int64, in AddressInput) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	address, err := s.owned(ctx, id, addressID)
	if err != nil {
		return nil, err
	}

	address.Street = in.Street
	address.City = in.City
	address.PostalCode = in.PostalCode
	address.Country = in.Country
	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) Delete(ctx context.Context, id auth.Identity, addressID int64) error {
	if _, err := s.owned(ctx, id, addressID); err != nil {
		return err
	}
	return s.addresses.Delete(ctx, addressID)
}

func (s *AddressService) owned(ctx context.Context, id auth.Identity, addressID int64) (*model.Address, error) {
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanActOn(id, address.UserID); err != nil {
		return nil, err
	}
	return address, nil
}
