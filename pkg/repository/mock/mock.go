package mock

import (
	"context"

	"github.com/vamoapp/vamo/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo *mockUserRepo
	ProfRepo *mockProfileRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo: &mockUserRepo{},
		ProfRepo: &mockProfileRepo{},
	}
}

type mockUserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.User{ID: 1, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}
	return 1, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

type mockProfileRepo struct {
	Stored    *models.Profile
	CreateErr error
}

func (m *mockProfileRepo) CreateProfile(ctx context.Context, p *models.Profile) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.Profile{ID: 1, UserID: p.UserID}
	return 1, nil
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	if m.Stored != nil && m.Stored.UserID == userID {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockProfileRepo) UpdateBalance(ctx context.Context, userID, balance int64) error {
	if m.Stored != nil && m.Stored.UserID == userID {
		m.Stored.PineappleBalance = balance
	}
	return nil
}
