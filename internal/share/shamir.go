package share

import (
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// reproducibilitySeed is the protocol constant from spec §3/§9: recombining
// any two shares produced from the same secret at any time must yield
// byte-identical shares, because a new local share can later be
// regenerated from recovery+backup and must stay interchangeable with the
// original. Changing this literal invalidates every previously uploaded
// backup share.
const reproducibilitySeed = "etopay"

// splitShamir divides secret into n shares requiring k to reconstruct,
// using coefficients deterministically derived from the reproducibility
// seed and the secret itself (not from a CSPRNG), so the same secret
// always yields the same n shares. Grounded on internal/shamir/shamir.go's
// polynomial-per-byte construction, generalized from random to seeded
// coefficients.
func splitShamir(secret []byte, n, k int) ([][]byte, error) {
	if k < 2 {
		return nil, fmt.Errorf("threshold must be at least 2")
	}
	if n < k {
		return nil, fmt.Errorf("n must be >= k")
	}
	if n > 255 {
		return nil, fmt.Errorf("n must be <= 255")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret must not be empty")
	}

	coeffs, err := deterministicCoefficients(secret, len(secret)*(k-1))
	if err != nil {
		return nil, err
	}

	shares := make([][]byte, n)
	for x := 1; x <= n; x++ {
		shareValue := make([]byte, len(secret))
		xByte := byte(x)

		for i, secretByte := range secret {
			coeffStart := i * (k - 1)
			val := secretByte
			xPoly := xByte

			for j := 0; j < k-1; j++ {
				c := coeffs[coeffStart+j]
				val = gfAdd(val, gfMul(c, xPoly))
				if j < k-2 {
					xPoly = gfMul(xPoly, xByte)
				}
			}
			shareValue[i] = val
		}
		shares[x-1] = shareValue
	}

	return shares, nil
}

// deterministicCoefficients expands the reproducibility seed and the
// secret through HKDF into exactly n pseudorandom coefficient bytes.
func deterministicCoefficients(secret []byte, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	r := hkdf.New(sha3.New256, secret, []byte(reproducibilitySeed), []byte("sss-coefficients"))
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("deriving deterministic coefficients: %w", err)
	}
	return buf, nil
}

type shamirShare struct {
	index byte
	value []byte
}

// combineShamir reconstructs the secret from at least k (index,value)
// shares via Lagrange interpolation at x=0.
func combineShamir(shares []shamirShare) ([]byte, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("need at least 2 shares")
	}

	secretLen := len(shares[0].value)
	for _, s := range shares {
		if len(s.value) != secretLen {
			return nil, fmt.Errorf("share length mismatch")
		}
	}

	weights := make([]byte, len(shares))
	for i, si := range shares {
		weight := byte(1)
		for j, sj := range shares {
			if i == j {
				continue
			}
			top := sj.index
			bottom := gfSub(sj.index, si.index)
			weight = gfMul(weight, gfDiv(top, bottom))
		}
		weights[i] = weight
	}

	secret := make([]byte, secretLen)
	for i := 0; i < secretLen; i++ {
		var val byte
		for j, s := range shares {
			val = gfAdd(val, gfMul(s.value[i], weights[j]))
		}
		secret[i] = val
	}

	return secret, nil
}
