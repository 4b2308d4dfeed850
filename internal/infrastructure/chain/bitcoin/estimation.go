package bitcoin_chain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// Virtual sizes of the pieces of a p2wpkh-spending transaction.
const (
	txOverheadVBytes    = 11
	p2wpkhInputVBytes   = 68
	p2wpkhOutputVBytes  = 31
	p2pkhOutputVBytes   = 34
	p2shOutputVBytes    = 32
	witnessScriptVBytes = 43
)

// estimateSize returns a segwit-aware virtual size estimator assuming
// p2wpkh-spendable inputs. Output sizes follow the type of each address;
// unparsable addresses are charged the largest script size.
func estimateSize(
	params *chaincfg.Params,
) func(inputCount, changeOutputCount int, externalAddresses []string) int64 {
	return func(inputCount, changeOutputCount int, externalAddresses []string) int64 {
		size := int64(txOverheadVBytes)
		size += int64(inputCount) * p2wpkhInputVBytes
		size += int64(changeOutputCount) * p2wpkhOutputVBytes
		for _, address := range externalAddresses {
			size += outputSize(address, params)
		}
		return size
	}
}

func outputSize(address string, params *chaincfg.Params) int64 {
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return witnessScriptVBytes
	}
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		return p2pkhOutputVBytes
	case *btcutil.AddressScriptHash:
		return p2shOutputVBytes
	case *btcutil.AddressWitnessPubKeyHash:
		return p2wpkhOutputVBytes
	default:
		return witnessScriptVBytes
	}
}
