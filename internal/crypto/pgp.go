package crypto

import (
	"bytes"
	gocrypto "crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

// PGPManager holds the server key used to encrypt the DPI national-ID field
// at rest. The key is loaded from keyPath, or generated and persisted there
// on first start.
type PGPManager struct {
	entity  *openpgp.Entity
	keyPath string
}

func NewPGPManager(keyPath string) (*PGPManager, error) {
	manager := &PGPManager{keyPath: keyPath}
	if err := manager.init(); err != nil {
		return nil, fmt.Errorf("failed to initialize PGP: %w", err)
	}
	return manager, nil
}

func (m *PGPManager) init() error {
	if _, err := os.Stat(m.keyPath); err == nil {
		entity, err := m.loadKeyFromFile()
		if err != nil {
			return fmt.Errorf("failed to load PGP key: %w", err)
		}
		m.entity = entity
		return nil
	}
	return m.generateAndSaveKey()
}

func (m *PGPManager) generateAndSaveKey() error {
	config := &packet.Config{
		Rand:          rand.Reader,
		RSABits:       4096,
		DefaultHash:   gocrypto.SHA256,
		DefaultCipher: packet.CipherAES256,
	}

	entity, err := openpgp.NewEntity("Banca API Server", "", "banca-api@banca.com.gt", config)
	if err != nil {
		return fmt.Errorf("failed to generate entity: %w", err)
	}

	for _, id := range entity.Identities {
		if err := id.SelfSignature.SignUserId(id.UserId.Id, entity.PrimaryKey, entity.PrivateKey, config); err != nil {
			return fmt.Errorf("failed to sign identity: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	file, err := os.OpenFile(m.keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer file.Close()

	armorWriter, err := armor.Encode(file, openpgp.PrivateKeyType, nil)
	if err != nil {
		return fmt.Errorf("failed to create armor writer: %w", err)
	}

	if err := entity.SerializePrivate(armorWriter, config); err != nil {
		armorWriter.Close()
		return fmt.Errorf("failed to serialize private key: %w", err)
	}

	if err := armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to close armor writer: %w", err)
	}

	m.entity = entity
	return nil
}

func (m *PGPManager) GetEntity() *openpgp.Entity {
	return m.entity
}

func (m *PGPManager) loadKeyFromFile() (*openpgp.Entity, error) {
	file, err := os.Open(m.keyPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	block, err := armor.Decode(file)
	if err != nil {
		return nil, err
	}

	if block.Type != openpgp.PrivateKeyType {
		return nil, errors.New("file is not a private key")
	}

	return openpgp.ReadEntity(packet.NewReader(block.Body))
}

// Encrypt returns the armored PGP encryption of data for entity.
func Encrypt(entity *openpgp.Entity, data string) (string, error) {
	var buf bytes.Buffer

	armorWriter, err := armor.Encode(&buf, "PGP MESSAGE", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create armor writer: %w", err)
	}

	plaintextWriter, err := openpgp.Encrypt(armorWriter, []*openpgp.Entity{entity}, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start encryption: %w", err)
	}

	if _, err := plaintextWriter.Write([]byte(data)); err != nil {
		return "", fmt.Errorf("failed to write plaintext: %w", err)
	}
	if err := plaintextWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finish encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to close armor writer: %w", err)
	}

	return buf.String(), nil
}

// Decrypt reverses Encrypt using the private half of entity.
func Decrypt(entity *openpgp.Entity, armored string) (string, error) {
	block, err := armor.Decode(bytes.NewBufferString(armored))
	if err != nil {
		return "", fmt.Errorf("failed to decode armor: %w", err)
	}

	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{entity}, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return "", fmt.Errorf("failed to read plaintext: %w", err)
	}

	return string(plaintext), nil
}
