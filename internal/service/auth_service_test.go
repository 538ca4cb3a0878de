package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/utils"
)

func adminConfig(t *testing.T, password string) config.AdminConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AdminConfig{Username: "admin", PasswordHash: string(hash)}
}

func TestLoginSuccess(t *testing.T) {
	svc := NewAuthService(adminConfig(t, "hunter2"), "secret")

	token, err := svc.Login("admin", "hunter2")
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(adminConfig(t, "hunter2"), "secret")
	_, err := svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(adminConfig(t, "hunter2"), "secret")
	_, err := svc.Login("root", "hunter2")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestLoginNoHashConfigured(t *testing.T) {
	svc := NewAuthService(config.AdminConfig{Username: "admin"}, "secret")
	_, err := svc.Login("admin", "anything")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

type fakeOverrideManager struct {
	fakeOverrideStore
	set     []models.Override
	deleted []string
	cleared bool
}

func (f *fakeOverrideManager) SetMany(overrides []models.Override) error {
	f.set = append(f.set, overrides...)
	return nil
}

func (f *fakeOverrideManager) DeleteOne(productID string) (bool, error) {
	f.deleted = append(f.deleted, productID)
	return true, nil
}

func (f *fakeOverrideManager) DeleteAll() (int64, error) {
	f.cleared = true
	return 3, nil
}

func TestOverrideServiceSetValidates(t *testing.T) {
	repo := &fakeOverrideManager{}
	svc := NewOverrideService(repo)

	err := svc.Set([]models.Override{{ProductID: " 1001 ", Price: " 49990.99 "}})
	require.NoError(t, err)
	require.Len(t, repo.set, 1)
	assert.Equal(t, "1001", repo.set[0].ProductID)
	assert.Equal(t, "49990.99", repo.set[0].Price)

	assert.Error(t, svc.Set([]models.Override{{ProductID: "", Price: "10.00"}}))
	assert.Error(t, svc.Set([]models.Override{{ProductID: "1", Price: "ten"}}))
	assert.Error(t, svc.Set([]models.Override{{ProductID: "1", Price: "-5"}}))
}

func TestOverrideServiceDeleteAndClear(t *testing.T) {
	repo := &fakeOverrideManager{}
	svc := NewOverrideService(repo)

	ok, err := svc.Delete("1001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"1001"}, repo.deleted)

	n, err := svc.Clear()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.True(t, repo.cleared)
}
