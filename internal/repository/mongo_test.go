package repository

import (
	"smart_lms_analytics/internal/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
)

var _ = Describe("mongo helpers", func() {
	It("parses hex object ids", func() {
		oid, err := parseObjectID("64b7f0c2a1b2c3d4e5f60718")
		Expect(err).NotTo(HaveOccurred())
		Expect(oid.Hex()).To(Equal("64b7f0c2a1b2c3d4e5f60718"))
	})

	It("rejects malformed ids", func() {
		_, err := parseObjectID("not-an-id")
		Expect(err).To(MatchError(util.ErrInvalidObjectID))
	})

	It("never emits a null $in list", func() {
		m := inStrings(nil)
		Expect(m["$in"]).To(Equal([]string{}))
		_, err := bson.Marshal(bson.M{"courseId": m})
		Expect(err).NotTo(HaveOccurred())
	})
})
