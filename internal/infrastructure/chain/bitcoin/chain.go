package bitcoin_chain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-bip32"

	"github.com/armagg/coin-payments/internal/core/ports"
)

const externalChain = 0

// NewChainSupport returns the capability record for a bitcoin-family chain:
// btcutil-backed address validation, BIP32 derivation of payport indexes from
// the given account xpub, a segwit-aware size estimator and a wire
// serializer. The xpub may be empty when index payports are not used.
func NewChainSupport(
	params *chaincfg.Params, xpub string,
) (ports.ChainSupport, error) {
	var accountKey *bip32.Key
	if xpub != "" {
		key, err := bip32.B58Deserialize(xpub)
		if err != nil {
			return ports.ChainSupport{}, fmt.Errorf("invalid xpub: %s", err)
		}
		accountKey = key
	}

	return ports.ChainSupport{
		ValidateAddress: func(address string) error {
			return validateAddress(address, params)
		},
		DeriveAddress: func(index uint32) (string, error) {
			if accountKey == nil {
				return "", fmt.Errorf("no xpub configured for address derivation")
			}
			return deriveAddress(accountKey, index, params)
		},
		EstimateSize:  estimateSize(params),
		SerializePlan: serializePlan(params),
	}, nil
}

func validateAddress(address string, params *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return err
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("address %s is for another network", address)
	}
	return nil
}

func deriveAddress(
	accountKey *bip32.Key, index uint32, params *chaincfg.Params,
) (string, error) {
	chainKey, err := accountKey.NewChildKey(externalChain)
	if err != nil {
		return "", err
	}
	child, err := chainKey.NewChildKey(index)
	if err != nil {
		return "", err
	}
	pubKey := child.PublicKey()
	witnessProg := btcutil.Hash160(pubKey.Key)
	address, err := btcutil.NewAddressWitnessPubKeyHash(witnessProg, params)
	if err != nil {
		return "", err
	}
	return address.EncodeAddress(), nil
}
