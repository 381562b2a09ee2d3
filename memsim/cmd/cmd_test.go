package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/datarecording"
)

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return buf.String(), err
}

const smallConfig = `
sys: { numCores: 2, lineSize: 64 }
sim: { phaseLength: 500, seed: 3 }
memory:
  main: { latency: 100 }
  l1i:  { size: 4096, ways: 4, latency: 3 }
  l1d:  { size: 4096, ways: 8, latency: 4 }
  l2:   { size: 16384, ways: 8, latency: 7 }
  llc:  { size: 65536, ways: 16, latency: 15, bankSize: 32768, policy: arc }
`

var _ = Describe("memsim", func() {
	var (
		dir        string
		configPath string
		tracePath  string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		configPath = filepath.Join(dir, "config.yaml")
		tracePath = filepath.Join(dir, "trace.txt")

		Expect(os.WriteFile(configPath, []byte(smallConfig), 0o644)).
			To(Succeed())

		_, err := execute("gen",
			"--cores", "2",
			"--records", "300",
			"--footprint", "512",
			"--seed", "5",
			"--out", tracePath)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should synthesize a trace", func() {
		data, err := os.ReadFile(tracePath)
		Expect(err).ToNot(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		Expect(lines[0]).To(HavePrefix("#"))
		Expect(lines).To(HaveLen(601))
	})

	It("should validate a configuration", func() {
		out, err := execute("validate", "--config", configPath, "--dump")

		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("l1d-1 -> l2-1"))
		Expect(out).To(ContainSubstring("l2-0 -> llc"))
		Expect(out).To(ContainSubstring("llc -> mem"))
		Expect(out).To(ContainSubstring("mem -> -"))
		Expect(out).To(ContainSubstring("bankSize: 32768"))
	})

	It("should reject an invalid configuration", func() {
		bad := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(bad,
			[]byte(strings.Replace(smallConfig, "ways: 8, latency: 4", "ways: 3, latency: 4", 1)),
			0o644)).To(Succeed())

		_, err := execute("validate", "--config", bad)

		Expect(err).To(HaveOccurred())
	})

	It("should run a trace to completion", func() {
		out := new(bytes.Buffer)
		err := runSimulation(runOptions{
			configPath:     configPath,
			tracePath:      tracePath,
			queue:          "wheel",
			countEvents:    true,
			checkInvariant: true,
		}, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("core 0: cycles"))
		Expect(out.String()).To(ContainSubstring("core 1: cycles"))
		Expect(out.String()).To(ContainSubstring("llc: hits"))
		Expect(out.String()).To(ContainSubstring("l1d-0 events: Cache Hit"))
	})

	It("should give the same result with every queue", func() {
		results := []string{}

		for _, q := range []string{"wheel", "heap", "insertion"} {
			out := new(bytes.Buffer)
			err := runSimulation(runOptions{
				configPath: configPath,
				tracePath:  tracePath,
				queue:      q,
			}, out)
			Expect(err).ToNot(HaveOccurred())

			results = append(results, out.String())
		}

		Expect(results[1]).To(Equal(results[0]))
		Expect(results[2]).To(Equal(results[0]))
	})

	It("should stop after the phase limit", func() {
		out := new(bytes.Buffer)
		err := runSimulation(runOptions{
			configPath: configPath,
			tracePath:  tracePath,
			queue:      "wheel",
			maxPhases:  2,
		}, out)

		Expect(err).ToNot(HaveOccurred())
		Expect(out.String()).To(HavePrefix("phases: 2\n"))
	})

	It("should reject an unknown queue", func() {
		err := runSimulation(runOptions{
			configPath: configPath,
			tracePath:  tracePath,
			queue:      "list",
		}, new(bytes.Buffer))

		Expect(err).To(MatchError(ContainSubstring("unknown event queue")))
	})

	It("should reject a missing trace", func() {
		err := runSimulation(runOptions{
			configPath: configPath,
			tracePath:  filepath.Join(dir, "none.txt"),
			queue:      "wheel",
		}, new(bytes.Buffer))

		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should record counters", func() {
		db := filepath.Join(dir, "stats")

		err := runSimulation(runOptions{
			configPath:     configPath,
			tracePath:      tracePath,
			dbPath:         db,
			recordInterval: 1,
			queue:          "wheel",
		}, new(bytes.Buffer))
		Expect(err).ToNot(HaveOccurred())

		h, err := datarecording.OpenHistory(db)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()

		rows, err := h.CacheCounters(context.Background(), "mem")
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).ToNot(BeEmpty())

		info, err := h.ExecInfo(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(info).To(HaveKeyWithValue("Queue", "wheel"))
	})

	It("should record the last phase whatever the interval", func() {
		db := filepath.Join(dir, "sparse")
		out := new(bytes.Buffer)

		err := runSimulation(runOptions{
			configPath:     configPath,
			tracePath:      tracePath,
			dbPath:         db,
			recordInterval: 1000,
			queue:          "heap",
		}, out)
		Expect(err).ToNot(HaveOccurred())

		report := new(bytes.Buffer)
		Expect(printReport(context.Background(), db, "llc", report)).
			To(Succeed())

		for _, line := range strings.Split(out.String(), "\n") {
			if strings.HasPrefix(line, "llc: ") ||
				strings.HasPrefix(line, "core 1: ") {
				Expect(report.String()).To(ContainSubstring(line))
			}
		}

		Expect(report.String()).To(ContainSubstring("Queue: heap"))
		Expect(report.String()).To(ContainSubstring("llc phase 0: hits"))
	})

	It("should refuse to overwrite a recording", func() {
		db := filepath.Join(dir, "stats")
		Expect(os.WriteFile(db+".sqlite3", nil, 0o644)).To(Succeed())

		err := runSimulation(runOptions{
			configPath: configPath,
			tracePath:  tracePath,
			dbPath:     db,
			queue:      "wheel",
		}, new(bytes.Buffer))

		Expect(err).To(MatchError(os.ErrExist))
	})

	It("should report a recording from the command line", func() {
		db := filepath.Join(dir, "cli")
		_, err := execute("run",
			"--config", configPath,
			"--trace", tracePath,
			"--db", db)
		Expect(err).ToNot(HaveOccurred())

		out, err := execute("report", "--db", db+".sqlite3")

		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("last recorded phase: "))
		Expect(out).To(ContainSubstring("core 0: cycles"))
		Expect(out).To(MatchRegexp(`mem: hits \d+, misses \d+, .*miss rate`))
	})

	It("should reject a missing recording", func() {
		err := printReport(context.Background(),
			filepath.Join(dir, "none"), "", new(bytes.Buffer))

		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
