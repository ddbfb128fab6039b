package cache

// MockStorage is a mock implementation of the Storage interface for testing
type MockStorage struct {
	MatchFunc  func(name, key string) (*Entry, error)
	PutAllFunc func(name string, entries map[string]*Entry) error
	KeysFunc   func(name string) ([]string, error)
	NamesFunc  func() ([]string, error)
	DeleteFunc func(name string) error
}

// Match implements Storage.Match
func (m *MockStorage) Match(name, key string) (*Entry, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(name, key)
	}
	return nil, ErrNotFound
}

// PutAll implements Storage.PutAll
func (m *MockStorage) PutAll(name string, entries map[string]*Entry) error {
	if m.PutAllFunc != nil {
		return m.PutAllFunc(name, entries)
	}
	return nil
}

// Keys implements Storage.Keys
func (m *MockStorage) Keys(name string) ([]string, error) {
	if m.KeysFunc != nil {
		return m.KeysFunc(name)
	}
	return nil, nil
}

// Names implements Storage.Names
func (m *MockStorage) Names() ([]string, error) {
	if m.NamesFunc != nil {
		return m.NamesFunc()
	}
	return nil, nil
}

// Delete implements Storage.Delete
func (m *MockStorage) Delete(name string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(name)
	}
	return nil
}
