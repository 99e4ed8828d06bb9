package vault

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPBackend implements Backend over an SSH connection, so the storage root
// can live on another machine. Closing the backend closes both clients.
type SFTPBackend struct {
	client *sftp.Client
	ssh    *ssh.Client
}

// NewSFTPBackend wraps an established SSH connection in a Backend.
func NewSFTPBackend(sshClient *ssh.Client) (*SFTPBackend, error) {
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}
	return &SFTPBackend{client: client, ssh: sshClient}, nil
}

// DialSFTP connects to addr with password authentication and returns a ready
// backend.
func DialSFTP(addr, user, password string) (*SFTPBackend, error) {
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Note: In production, use proper host key verification
	}

	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	backend, err := NewSFTPBackend(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, err
	}
	return backend, nil
}

func (s *SFTPBackend) Stat(path string) (os.FileInfo, error) {
	return s.client.Stat(path)
}

func (s *SFTPBackend) ReadDir(path string) ([]os.FileInfo, error) {
	return s.client.ReadDir(path)
}

func (s *SFTPBackend) MkdirAll(path string) error {
	return s.client.MkdirAll(path)
}

func (s *SFTPBackend) Rename(oldPath, newPath string) error {
	return s.client.Rename(oldPath, newPath)
}

func (s *SFTPBackend) Remove(path string) error {
	return s.client.Remove(path)
}

func (s *SFTPBackend) RemoveAll(path string) error {
	return s.client.RemoveAll(path)
}

func (s *SFTPBackend) Open(path string) (io.ReadCloser, error) {
	return s.client.Open(path)
}

func (s *SFTPBackend) Create(path string) (io.WriteCloser, error) {
	return s.client.Create(path)
}

func (s *SFTPBackend) Close() error {
	err := s.client.Close()
	if s.ssh != nil {
		if sshErr := s.ssh.Close(); err == nil {
			err = sshErr
		}
	}
	return err
}
