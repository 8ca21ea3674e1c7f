package nite_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nite Suite")
}
