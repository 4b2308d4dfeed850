package bitcoin_chain

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/armagg/coin-payments/internal/core/domain"
)

// serializePlan renders a plan as an unsigned wire transaction: inputs in
// selection order, external outputs first, change outputs last.
func serializePlan(
	params *chaincfg.Params,
) func(tx *domain.PaymentTx) (string, string, error) {
	return func(tx *domain.PaymentTx) (string, string, error) {
		msg := wire.NewMsgTx(wire.TxVersion)
		for _, input := range tx.Inputs {
			prevHash, err := chainhash.NewHashFromStr(input.TxID)
			if err != nil {
				return "", "", err
			}
			outpoint := wire.NewOutPoint(prevHash, input.VOut)
			msg.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
		}
		for _, output := range tx.ExternalOutputs {
			if err := addOutput(msg, output, params); err != nil {
				return "", "", err
			}
		}
		for _, output := range tx.ChangeOutputs {
			if err := addOutput(msg, output, params); err != nil {
				return "", "", err
			}
		}

		var buf bytes.Buffer
		if err := msg.Serialize(&buf); err != nil {
			return "", "", err
		}
		return hex.EncodeToString(buf.Bytes()), msg.TxHash().String(), nil
	}
}

func addOutput(
	msg *wire.MsgTx, output domain.TxOutput, params *chaincfg.Params,
) error {
	decoded, err := btcutil.DecodeAddress(output.Address, params)
	if err != nil {
		return err
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return err
	}
	msg.AddTxOut(wire.NewTxOut(output.Value, script))
	return nil
}
