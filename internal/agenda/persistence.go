package agenda

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Persistence grava e recupera a coleção inteira de agendamentos como um
// blob serializado sob uma chave conhecida. Não há atualização parcial: toda
// mutação do Store reescreve o snapshot completo.
type Persistence interface {
	Save(ctx context.Context, items []Appointment) error
	Load(ctx context.Context) ([]Appointment, error)
}

// DefaultKey é a chave usada pela API para o snapshot da coleção.
const DefaultKey = "agendamento:appointments"

// RedisPersistence guarda o snapshot em uma chave Redis, sem expiração.
type RedisPersistence struct {
	client *redis.Client
	key    string
}

// NewRedisPersistence cria o colaborador de persistência.
func NewRedisPersistence(client *redis.Client, key string) *RedisPersistence {
	if key == "" {
		key = DefaultKey
	}
	return &RedisPersistence{client: client, key: key}
}

func (p *RedisPersistence) Save(ctx context.Context, items []Appointment) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.key, payload, 0).Err()
}

func (p *RedisPersistence) Load(ctx context.Context) ([]Appointment, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var items []Appointment
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MemoryPersistence mantém o snapshot em memória. Usada em testes e quando
// a API sobe sem Redis configurado.
type MemoryPersistence struct {
	items []Appointment
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (p *MemoryPersistence) Save(_ context.Context, items []Appointment) error {
	p.items = append([]Appointment(nil), items...)
	return nil
}

func (p *MemoryPersistence) Load(_ context.Context) ([]Appointment, error) {
	return append([]Appointment(nil), p.items...), nil
}
