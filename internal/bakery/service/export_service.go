package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

var reportHeaders = []string{
	"原料", "单位", "需求量(g)", "库存(g)", "需采购(g)", "采购单位数",
	"规格(g)", "预估采购成本", "需求成本", "库存覆盖率",
}

// ExportService 采购报表导出与归档
type ExportService struct {
	minio      *minio.Client
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

func NewExportService(minioClient *minio.Client, bucket string, presignTTL time.Duration, logger *zap.Logger) *ExportService {
	if presignTTL <= 0 {
		presignTTL = 24 * time.Hour
	}
	return &ExportService{minio: minioClient, bucket: bucket, presignTTL: presignTTL, logger: logger}
}

// StorageEnabled 是否配置了对象存储
func (s *ExportService) StorageEnabled() bool {
	return s.minio != nil
}

func lineName(l costing.ReportLine) string {
	if l.Name != "" {
		return l.Name
	}
	return l.IngredientID
}

func reportRow(l costing.ReportLine) []interface{} {
	return []interface{}{
		lineName(l), l.Unit, l.RequiredGrams, l.CurrentStockGrams, l.PurchaseNeededGrams,
		l.PurchaseNeededUnits, l.Norms, l.EstimatedCost, l.DemandCost, l.Coverage,
	}
}

// ReportXLSX 导出采购报表为xlsx
func (s *ExportService) ReportXLSX(report *costing.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "原料需求"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	// 覆盖率按百分比显示
	percentStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 10})
	shortageStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	for i, h := range reportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, l := range report.Lines {
		row := rowIdx + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := reportRow(l)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("J%d", row), fmt.Sprintf("J%d", row), percentStyle)
		if l.PurchaseNeededUnits > 0 {
			f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), shortageStyle)
		}
	}

	// 底部汇总行
	summaryRow := len(report.Lines) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("原料数: %d", len(report.Lines)))
	f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("缺货: %d", report.ShortageCount()))
	f.SetCellValue(sheet, fmt.Sprintf("G%d", summaryRow), fmt.Sprintf("安全系数 %.2f", report.SafetyMultiplier))
	f.SetCellValue(sheet, fmt.Sprintf("H%d", summaryRow), report.TotalPurchaseCost)
	f.SetCellValue(sheet, fmt.Sprintf("I%d", summaryRow), report.TotalDemandCost)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("J%d", summaryRow), summaryStyle)

	colWidths := []float64{20, 8, 12, 12, 12, 12, 10, 14, 12, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReportCSV gbk=true 时按 GBK 编码输出，旧版 Excel 直接打开不乱码；否则写 UTF-8 BOM。
// GBK 无法表示的字符（emoji 等）替换为占位符，不中断输出
func (s *ExportService) ReportCSV(w io.Writer, report *costing.Report, gbk bool) (err error) {
	out := w
	if gbk {
		tw := transform.NewWriter(w, encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder()))
		defer func() {
			if cerr := tw.Close(); err == nil {
				err = cerr
			}
		}()
		out = tw
	} else if _, err := io.WriteString(w, "\xEF\xBB\xBF"); err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for _, l := range report.Lines {
		record := []string{
			lineName(l), l.Unit,
			formatNumber(l.RequiredGrams),
			formatNumber(l.CurrentStockGrams),
			formatNumber(l.PurchaseNeededGrams),
			formatNumber(l.PurchaseNeededUnits),
			formatNumber(l.Norms),
			formatNumber(l.EstimatedCost),
			formatNumber(l.DemandCost),
			strconv.FormatFloat(l.Coverage*100, 'f', 1, 64) + "%",
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		"汇总", "", "", "", "", "", "",
		formatNumber(report.TotalPurchaseCost), formatNumber(report.TotalDemandCost), "",
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Upload 上传到对象存储，返回限时下载链接
func (s *ExportService) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if s.minio == nil {
		return "", ErrStorageNotConfigured
	}
	_, err := s.minio.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传文件失败: %w", err)
	}
	u, err := s.minio.PresignedGetObject(ctx, s.bucket, objectName, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	s.logger.Info("Report archived", zap.String("bucket", s.bucket), zap.String("object", objectName))
	return u.String(), nil
}

// ArchiveReport 生成xlsx并上传，对象名 purchase-reports/<name>.xlsx
func (s *ExportService) ArchiveReport(ctx context.Context, name string, report *costing.Report) (string, error) {
	if s.minio == nil {
		return "", ErrStorageNotConfigured
	}
	f, err := s.ReportXLSX(report)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("write excel: %w", err)
	}
	return s.Upload(ctx, "purchase-reports/"+name+".xlsx", ContentTypeXLSX, buf.Bytes())
}
