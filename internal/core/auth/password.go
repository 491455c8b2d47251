package auth

import "toob-api/pkg/utils"

// Hasher bcrypt 单向加盐哈希
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(plain string) (string, error) { return utils.HashPassword(plain, h.Cost) }

func (h Hasher) Verify(plain, hashed string) bool { return utils.CheckPassword(plain, hashed) }
