package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

// ErrInsufficientFunds is returned when the account can't cover a payment.
var ErrInsufficientFunds = errors.New("insufficient funds")

var (
	url   string
	to    string
	value float64
	fee   float64
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the unspent outputs of the account",
	RunE:  balanceRun,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Pay value to a public key",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account name or public key of the receiver.")
	sendCmd.Flags().Float64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Float64VarP(&fee, "fee", "f", 0, "Fee left for the block proposer.")
	sendCmd.MarkFlagRequired("to")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	utxos, err := queryUTXOs(signature.PublicKeyBytes(privateKey.PublicKey))
	if err != nil {
		return err
	}

	var total float64
	for _, u := range utxos {
		fmt.Printf("%s:%d\t%v\n", u.TxHash, u.Index, u.Value)
		total += u.Value
	}
	fmt.Println("balance:", total)

	return nil
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	receiver, err := ns.Resolve(to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	utxos, err := queryUTXOs(signature.PublicKeyBytes(privateKey.PublicKey))
	if err != nil {
		return err
	}

	tx, err := buildTx(privateKey, utxos, receiver, value, fee)
	if err != nil {
		return err
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit: status %d", resp.StatusCode)
	}

	log.Infow("send", "tx", tx, "to", to, "value", value, "fee", fee)
	fmt.Println(tx.Hash)

	return nil
}

// =============================================================================

func queryUTXOs(owner []byte) ([]chain.UTXOInfo, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/utxos/%s", url, hexutil.Encode(owner)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var utxos []chain.UTXOInfo
	if err := json.NewDecoder(resp.Body).Decode(&utxos); err != nil {
		return nil, err
	}

	return utxos, nil
}

// buildTx spends the owner's outputs in order until they cover the value and
// fee, pays the value to the receiver and returns the change to the owner.
func buildTx(privateKey *ecdsa.PrivateKey, utxos []chain.UTXOInfo, receiver []byte, value float64, fee float64) (database.Tx, error) {
	owner := signature.PublicKeyBytes(privateKey.PublicKey)
	need := value + fee

	var tx database.Tx
	var total float64
	for _, u := range utxos {
		if total >= need {
			break
		}
		if err := tx.AddInput(u.TxHash, u.Index); err != nil {
			return database.Tx{}, err
		}
		total += u.Value
	}

	if total < need {
		return database.Tx{}, fmt.Errorf("have %v, need %v: %w", total, need, ErrInsufficientFunds)
	}

	if err := tx.AddOutput(value, receiver); err != nil {
		return database.Tx{}, err
	}
	if change := total - need; change > 0 {
		if err := tx.AddOutput(change, owner); err != nil {
			return database.Tx{}, err
		}
	}

	for i := range tx.Inputs {
		if err := tx.SignInput(i, privateKey); err != nil {
			return database.Tx{}, err
		}
	}

	if err := tx.Finalize(); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}
