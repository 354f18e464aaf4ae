package community

import (
	"encoding/json"
	"github.com/alexandre-normand/steward/store"
	"strconv"
)

const (
	// SettingsNamespace is the name of the storage namespace holding community settings
	SettingsNamespace = "communitySettings"

	// CreditsNamespace is the name of the storage namespace holding member credits
	CreditsNamespace = "memberCredits"
)

// Store holds community settings and member credits on top of two StringStorers
type Store struct {
	settings store.StringStorer
	credits  store.StringStorer

	settingsLocks keyLock
	creditsLocks  keyLock
}

// NewStore returns a new Store persisting settings and credits with the given storers. The
// storers are owned by the Store from then on and closed by Close
func NewStore(settingsStorer store.StringStorer, creditsStorer store.StringStorer) (s *Store) {
	s = new(Store)
	s.settings = settingsStorer
	s.credits = creditsStorer

	return s
}

// GetSettings returns the settings of a community or the default settings if the
// community was never configured
func (s *Store) GetSettings(communityID string) (settings Settings, err error) {
	l := s.settingsLocks.forKey(communityID)
	l.Lock()
	defer l.Unlock()

	raw, err := s.settings.GetString(communityID)
	if store.IsNotFound(err) {
		return DefaultSettings(), nil
	}

	if err != nil {
		return DefaultSettings(), storageErr("get settings", communityID, err)
	}

	if err = json.Unmarshal([]byte(raw), &settings); err != nil {
		return DefaultSettings(), storageErr("decode settings", communityID, err)
	}

	return settings, nil
}

// PutSettings replaces the whole settings record of a community. The new settings are
// persisted when PutSettings returns without error
func (s *Store) PutSettings(communityID string, settings Settings) (err error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	l := s.settingsLocks.forKey(communityID)
	l.Lock()
	defer l.Unlock()

	if err = s.settings.PutString(communityID, string(raw)); err != nil {
		return storageErr("put settings", communityID, err)
	}

	return nil
}

// IncrementCredits adds delta to a member's credits and returns the new total. Concurrent
// increments for the same member are serialized so none is lost
func (s *Store) IncrementCredits(memberID string, delta int64) (total int64, err error) {
	if delta < 0 {
		return 0, ErrInvalidDelta
	}

	l := s.creditsLocks.forKey(memberID)
	l.Lock()
	defer l.Unlock()

	current, err := s.readCredits(memberID)
	if err != nil {
		return 0, err
	}

	total = current + delta
	if err = s.credits.PutString(memberID, strconv.FormatInt(total, 10)); err != nil {
		return 0, storageErr("put credits", memberID, err)
	}

	return total, nil
}

// GetCredits returns the credits of a member, 0 if the member never earned any
func (s *Store) GetCredits(memberID string) (total int64, err error) {
	l := s.creditsLocks.forKey(memberID)
	l.Lock()
	defer l.Unlock()

	return s.readCredits(memberID)
}

// readCredits reads the current credits of a member. The caller must hold the member's lock
func (s *Store) readCredits(memberID string) (total int64, err error) {
	raw, err := s.credits.GetString(memberID)
	if store.IsNotFound(err) {
		return 0, nil
	}

	if err != nil {
		return 0, storageErr("get credits", memberID, err)
	}

	total, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, storageErr("decode credits", memberID, err)
	}

	return total, nil
}

// Close closes both underlying storers
func (s *Store) Close() (err error) {
	serr := s.settings.Close()
	cerr := s.credits.Close()

	if serr != nil {
		return serr
	}

	return cerr
}
