package store

// SetMetadata upserts a key-value pair.
func (s *Store) SetMetadata(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// GetMetadata returns the value for a metadata key, or an empty string if the key is missing.
func (s *Store) GetMetadata(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[key]
}

// GetImportedFileHash returns the sha256 recorded for a previously imported catalog file.
func (s *Store) GetImportedFileHash(path string) string {
	return s.GetMetadata("import:" + path)
}

// SetImportedFileHash records the sha256 of an imported catalog file.
func (s *Store) SetImportedFileHash(path, hash string) {
	s.SetMetadata("import:"+path, hash)
}
