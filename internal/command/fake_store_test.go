package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/shopspring/decimal"
)

var errForeignKey = errors.New("fake: foreign key violation")

// fakeStore is an in-memory repository.TxRunner. WithTx snapshots every table
// and restores the snapshot when fn fails, so tests observe the same
// all-or-nothing behaviour as a PostgreSQL transaction.
type fakeStore struct {
	users        map[int64]models.User
	profiles     map[int64]models.Profile // keyed by user id
	accounts     map[int64]models.BankAccount
	transactions map[int64]models.Transaction
	nextID       int64

	calls  []string
	failOn map[string]error

	// beforeLock runs ahead of LockAccounts, standing in for a write that
	// another transaction commits while this one waits for the row locks.
	beforeLock func(f *fakeStore)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int64]models.User{},
		profiles:     map[int64]models.Profile{},
		accounts:     map[int64]models.BankAccount{},
		transactions: map[int64]models.Transaction{},
		failOn:       map[string]error{},
	}
}

type fakeSnapshot struct {
	users        map[int64]models.User
	profiles     map[int64]models.Profile
	accounts     map[int64]models.BankAccount
	transactions map[int64]models.Transaction
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(w repository.Writer) error) error {
	snap := fakeSnapshot{
		users:        cloneMap(f.users),
		profiles:     cloneMap(f.profiles),
		accounts:     cloneMap(f.accounts),
		transactions: cloneMap(f.transactions),
	}
	if err := fn(f); err != nil {
		f.users = snap.users
		f.profiles = snap.profiles
		f.accounts = snap.accounts
		f.transactions = snap.transactions
		return err
	}
	return nil
}

func (f *fakeStore) record(name string) error {
	f.calls = append(f.calls, name)
	return f.failOn[name]
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// ---- seeding ----

func (f *fakeStore) seedUser(name, email string, withProfile bool) int64 {
	id := f.id()
	f.users[id] = models.User{ID: id, Name: name, Email: email}
	if withProfile {
		f.profiles[id] = models.Profile{ID: f.id(), Bio: "bio of " + name, UserID: id}
	}
	return id
}

func (f *fakeStore) seedAccount(userID int64, balance int64) int64 {
	id := f.id()
	f.accounts[id] = models.BankAccount{
		ID:            id,
		AccountNumber: fmt.Sprintf("01%06d", id),
		Balance:       decimal.NewFromInt(balance),
		UserID:        userID,
	}
	return id
}

func (f *fakeStore) seedTransaction(senderID, receiverID int64, amount int64) int64 {
	id := f.id()
	f.transactions[id] = models.Transaction{
		ID: id, Amount: decimal.NewFromInt(amount), SenderID: senderID, ReceiverID: receiverID,
	}
	return id
}

func (f *fakeStore) balance(accountID int64) decimal.Decimal {
	return f.accounts[accountID].Balance
}

// ---- users ----

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := f.record("CreateUser"); err != nil {
		return err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	user.ID = f.id()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := f.record("CreateProfile"); err != nil {
		return err
	}
	if _, ok := f.users[profile.UserID]; !ok {
		return models.ErrUserNotFound
	}
	profile.ID = f.id()
	f.profiles[profile.UserID] = *profile
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if err := f.record("GetUser"); err != nil {
		return nil, err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	if p, ok := f.profiles[id]; ok {
		user.Profile = &p
	}
	return &user, nil
}

func (f *fakeStore) UserExists(ctx context.Context, id int64) (bool, error) {
	if err := f.record("UserExists"); err != nil {
		return false, err
	}
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := f.record("UpdateUser"); err != nil {
		return err
	}
	if _, ok := f.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	stored := *user
	stored.Profile = nil
	f.users[user.ID] = stored
	return nil
}

func (f *fakeStore) UpdateProfileBio(ctx context.Context, userID int64, bio string) (*models.Profile, error) {
	if err := f.record("UpdateProfileBio"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	p.Bio = bio
	f.profiles[userID] = p
	return &p, nil
}

func (f *fakeStore) DeleteProfileByUserID(ctx context.Context, userID int64) error {
	if err := f.record("DeleteProfileByUserID"); err != nil {
		return err
	}
	if _, ok := f.profiles[userID]; !ok {
		return models.ErrProfileNotFound
	}
	delete(f.profiles, userID)
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id int64) (*models.User, error) {
	if err := f.record("DeleteUser"); err != nil {
		return nil, err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	for _, a := range f.accounts {
		if a.UserID == id {
			return nil, models.ErrUserHasAccounts
		}
	}
	delete(f.users, id)
	return &user, nil
}

// ---- accounts ----

func (f *fakeStore) CreateAccount(ctx context.Context, account *models.BankAccount) error {
	if err := f.record("CreateAccount"); err != nil {
		return err
	}
	if _, ok := f.users[account.UserID]; !ok {
		return models.ErrUserNotFound
	}
	account.ID = f.id()
	f.accounts[account.ID] = *account
	return nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id int64) (*models.BankAccount, error) {
	if err := f.record("GetAccount"); err != nil {
		return nil, err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (f *fakeStore) FindAccountByUserID(ctx context.Context, userID int64) (*models.BankAccount, error) {
	if err := f.record("FindAccountByUserID"); err != nil {
		return nil, err
	}
	ids, _ := f.ListAccountIDsByUser(ctx, userID)
	if len(ids) == 0 {
		return nil, models.ErrAccountNotFound
	}
	a := f.accounts[ids[0]]
	return &a, nil
}

func (f *fakeStore) ListAccountIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for id, a := range f.accounts {
		if a.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) LockAccounts(ctx context.Context, ids ...int64) (map[int64]*models.BankAccount, error) {
	if err := f.record("LockAccounts"); err != nil {
		return nil, err
	}
	if f.beforeLock != nil {
		f.beforeLock(f)
	}
	locked := map[int64]*models.BankAccount{}
	for _, id := range ids {
		if a, ok := f.accounts[id]; ok {
			locked[id] = &a
		}
	}
	return locked, nil
}

func (f *fakeStore) UpdateAccount(ctx context.Context, account *models.BankAccount) error {
	if err := f.record("UpdateAccount"); err != nil {
		return err
	}
	if _, ok := f.accounts[account.ID]; !ok {
		return models.ErrAccountNotFound
	}
	f.accounts[account.ID] = *account
	return nil
}

func (f *fakeStore) DebitAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := f.record("DebitAccount"); err != nil {
		return decimal.Zero, err
	}
	a, ok := f.accounts[id]
	if !ok || a.Balance.LessThan(amount) {
		return decimal.Zero, models.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	f.accounts[id] = a
	return a.Balance, nil
}

func (f *fakeStore) CreditAccount(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := f.record("CreditAccount"); err != nil {
		return decimal.Zero, err
	}
	a, ok := f.accounts[id]
	if !ok {
		return decimal.Zero, models.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(amount)
	f.accounts[id] = a
	return a.Balance, nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, id int64) error {
	if err := f.record("DeleteAccount"); err != nil {
		return err
	}
	if _, ok := f.accounts[id]; !ok {
		return models.ErrAccountNotFound
	}
	for _, t := range f.transactions {
		if t.SenderID == id || t.ReceiverID == id {
			return errForeignKey
		}
	}
	delete(f.accounts, id)
	return nil
}

// ---- transactions ----

func (f *fakeStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	if err := f.record("CreateTransaction"); err != nil {
		return err
	}
	_, senderOK := f.accounts[transaction.SenderID]
	_, receiverOK := f.accounts[transaction.ReceiverID]
	if !senderOK || !receiverOK {
		return models.ErrPartyNotFound
	}
	transaction.ID = f.id()
	f.transactions[transaction.ID] = *transaction
	return nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	return &t, nil
}

func (f *fakeStore) DeleteTransactionsBySender(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	if err := f.record("DeleteTransactionsBySender"); err != nil {
		return nil, err
	}
	return f.deleteTransactions(func(t models.Transaction) bool { return t.SenderID == accountID }), nil
}

func (f *fakeStore) DeleteTransactionsByReceiver(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	if err := f.record("DeleteTransactionsByReceiver"); err != nil {
		return nil, err
	}
	return f.deleteTransactions(func(t models.Transaction) bool { return t.ReceiverID == accountID }), nil
}

func (f *fakeStore) deleteTransactions(match func(models.Transaction) bool) []models.Transaction {
	var removed []models.Transaction
	for id, t := range f.transactions {
		if match(t) {
			removed = append(removed, t)
			delete(f.transactions, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return removed
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	if err := f.record("DeleteTransaction"); err != nil {
		return nil, err
	}
	t, ok := f.transactions[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	delete(f.transactions, id)
	return &t, nil
}

// ---- read-side doubles ----

type recordingViews struct {
	users        []int64
	accounts     []int64
	transactions []int64
}

func (v *recordingViews) InvalidateUserView(ctx context.Context, userID int64) {
	v.users = append(v.users, userID)
}

func (v *recordingViews) InvalidateAccountViews(ctx context.Context, ids ...int64) {
	v.accounts = append(v.accounts, ids...)
}

func (v *recordingViews) InvalidateTransactionViews(ctx context.Context, ids ...int64) {
	v.transactions = append(v.transactions, ids...)
}

type publishedEvent struct {
	stream    string
	eventType string
	data      any
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{stream: stream, eventType: eventType, data: data})
	return nil
}

func (p *fakePublisher) types() []string {
	out := make([]string, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.eventType)
	}
	return out
}

func containsID(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
